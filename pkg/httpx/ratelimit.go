package httpx

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/zefruta/storefront/pkg/slogx"
)

// RateLimit allows Requests per Window per key, with up to Burst at once.
type RateLimit struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// ParseRateLimit reads "<requests>/<window>" with an optional ":<burst>",
// e.g. "5/1m" or "100/1m:20". Burst defaults to requests.
func ParseRateLimit(s string) (RateLimit, error) {
	limit, burstRaw, hasBurst := strings.Cut(strings.TrimSpace(s), ":")
	reqRaw, winRaw, ok := strings.Cut(limit, "/")
	if !ok {
		return RateLimit{}, fmt.Errorf("rate limit %q: want <requests>/<window>", s)
	}

	requests, err := strconv.Atoi(reqRaw)
	if err != nil || requests <= 0 {
		return RateLimit{}, fmt.Errorf("rate limit %q: requests must be a positive integer", s)
	}
	window, err := time.ParseDuration(winRaw)
	if err != nil || window <= 0 {
		return RateLimit{}, fmt.Errorf("rate limit %q: window must be a positive duration", s)
	}

	burst := requests
	if hasBurst {
		burst, err = strconv.Atoi(burstRaw)
		if err != nil || burst <= 0 {
			return RateLimit{}, fmt.Errorf("rate limit %q: burst must be a positive integer", s)
		}
	}
	return RateLimit{Requests: requests, Window: window, Burst: burst}, nil
}

func (l RateLimit) String() string {
	if l.Burst == l.Requests {
		return fmt.Sprintf("%d/%s", l.Requests, l.Window)
	}
	return fmt.Sprintf("%d/%s:%d", l.Requests, l.Window, l.Burst)
}

// RateLimits are the profiles the router assigns to routes.
type RateLimits struct {
	Strict   RateLimit // login start, fragment callback submit
	Moderate RateLimit // callback landing, diagnostics
	Lenient  RateLimit // dashboards, proxy, health checks
	Public   RateLimit // home page
}

// DefaultRateLimits returns the built-in profiles.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   RateLimit{Requests: 5, Window: time.Minute, Burst: 5},
		Moderate: RateLimit{Requests: 20, Window: time.Minute, Burst: 20},
		Lenient:  RateLimit{Requests: 100, Window: time.Minute, Burst: 100},
		Public:   RateLimit{Requests: 1000, Window: time.Minute, Burst: 1000},
	}
}

// KeyFunc groups requests that share a limiter. An empty key is not limited.
type KeyFunc func(*http.Request) string

// KeyByIP uses the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// KeyByUser uses the id of the user RequireSession admitted.
func KeyByUser(r *http.Request) string {
	if u, ok := UserFromContext(r.Context()); ok {
		return u.ID
	}
	return ""
}

// KeyByField uses a query or form value, e.g. the requested role.
func KeyByField(name string) KeyFunc {
	return func(r *http.Request) string {
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return r.FormValue(name)
	}
}

// KeyJoin concatenates the non-empty keys of fns with sep.
func KeyJoin(sep string, fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if k := fn(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

// limiterSet hands out one token bucket per key and forgets keys that have
// been idle for longer than idleAfter.
type limiterSet struct {
	limit     rate.Limit
	burst     int
	idleAfter time.Duration

	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLimiterSet(l RateLimit) *limiterSet {
	return &limiterSet{
		limit:     rate.Limit(float64(l.Requests) / l.Window.Seconds()),
		burst:     l.Burst,
		idleAfter: max(l.Window, 5*time.Minute),
		entries:   map[string]*limiterEntry{},
		lastSweep: time.Now(),
	}
}

func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= s.idleAfter {
		for k, e := range s.entries {
			if now.Sub(e.seen) >= s.idleAfter {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}
	e.seen = now
	return e.lim
}

// RateLimitMiddleware answers 429 with Retry-After once key exceeds l.
func RateLimitMiddleware(l RateLimit, key KeyFunc) Middleware {
	set := newLimiterSet(l)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			lim := set.get(k, now)
			if lim.AllowN(now, 1) {
				next.ServeHTTP(w, r)
				return
			}

			res := lim.ReserveN(now, 1)
			retry := int(math.Ceil(res.DelayFrom(now).Seconds()))
			res.CancelAt(now)
			retry = max(retry, 1)

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"path", r.URL.Path,
				"limit", l.String(),
				"retry_after", retry,
			)

			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Requests))
			w.Header().Set("X-RateLimit-Window", l.Window.String())
			WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
		})
	}
}

// RateLimitByIP limits per client address.
func RateLimitByIP(l RateLimit) Middleware {
	return RateLimitMiddleware(l, KeyByIP)
}

// RateLimitByUser limits per session user and address.
func RateLimitByUser(l RateLimit) Middleware {
	return RateLimitMiddleware(l, KeyJoin(":", KeyByUser, KeyByIP))
}

// RateLimitByIPAndField limits per client address and a request field.
func RateLimitByIPAndField(l RateLimit, field string) Middleware {
	return RateLimitMiddleware(l, KeyJoin(":", KeyByIP, KeyByField(field)))
}
