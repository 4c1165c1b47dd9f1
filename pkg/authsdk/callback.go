package authsdk

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

// Location is the address the OAuth redirect landed on. Replace rewrites the
// visible address without loading anything.
type Location interface {
	Current() *url.URL
	Replace(u *url.URL)
}

// URLLocation is a Location over a plain URL, used by the HTTP layer and
// tests. It counts how often Replace was called.
type URLLocation struct {
	mu           sync.Mutex
	u            *url.URL
	replacements int
}

// NewURLLocation wraps a copy of u.
func NewURLLocation(u *url.URL) *URLLocation {
	c := *u
	return &URLLocation{u: &c}
}

func (l *URLLocation) Current() *url.URL {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := *l.u
	return &c
}

func (l *URLLocation) Replace(u *url.URL) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := *u
	l.u = &c
	l.replacements++
}

// Replacements reports how many times Replace ran.
func (l *URLLocation) Replacements() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replacements
}

// callbackParams are removed from the address once a token was found.
var callbackParams = []string{"token", "type", "userType", "error", "code", "state", "fragment"}

// CallbackResult is the outcome of one Handle call.
type CallbackResult struct {
	Success bool
	Role    Role
	RawRole string
	Err     error
}

// Callback turns an OAuth redirect into a committed session.
type Callback struct {
	Store  *SessionStore
	Logger logr.Logger
}

// Handle reads the token and role hint from loc (query first, then
// fragment), strips them from the address and commits the session.
//
// A missing token yields ErrTokenMissing with nothing navigated or stored.
// This is also what a second pass over an already cleaned address returns;
// callers check Store.IsValid to tell that apart from a failed login.
func (c *Callback) Handle(ctx context.Context, loc Location) CallbackResult {
	log := resolveLogger(c.Logger)
	u := loc.Current()

	token, hint := extractCallback(u)
	if token == "" {
		log.V(1).Info("callback without token", "path", u.Path)
		return CallbackResult{Err: ErrTokenMissing}
	}

	if hint == "" {
		if pending, ok := c.Store.PendingLogin(ctx); ok {
			hint = pending
		}
	}

	loc.Replace(StripCallbackParams(u))

	user, err := c.Store.Commit(ctx, token, hint)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			log.Info("callback token rejected", "err", err.Error())
		} else {
			log.Error(err, "storing session failed")
		}
		return CallbackResult{RawRole: hint, Err: err}
	}

	return CallbackResult{
		Success: true,
		Role:    user.UserType,
		RawRole: user.OriginalType,
	}
}

// extractCallback returns the token and role hint carried by u.
func extractCallback(u *url.URL) (token, hint string) {
	query := u.Query()
	if t := query.Get("token"); t != "" {
		return t, firstNonEmpty(query.Get("type"), query.Get("userType"), fragmentHint(u))
	}

	frag := fragmentValues(u)
	return frag.Get("token"), firstNonEmpty(
		query.Get("type"), query.Get("userType"),
		frag.Get("type"), frag.Get("userType"),
	)
}

func fragmentHint(u *url.URL) string {
	frag := fragmentValues(u)
	return firstNonEmpty(frag.Get("type"), frag.Get("userType"))
}

func fragmentValues(u *url.URL) url.Values {
	raw := strings.TrimPrefix(u.EscapedFragment(), "#")
	if raw == "" {
		return url.Values{}
	}
	v, err := url.ParseQuery(raw)
	if err != nil {
		return url.Values{}
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// StripCallbackParams returns a copy of u without the callback parameters
// and without a fragment.
func StripCallbackParams(u *url.URL) *url.URL {
	out := *u
	q := out.Query()
	for _, p := range callbackParams {
		q.Del(p)
	}
	out.RawQuery = q.Encode()
	out.Fragment = ""
	out.RawFragment = ""
	return &out
}

// LoginURL builds the backend OAuth entry for role, asking the backend to
// redirect to callbackURL afterwards.
func LoginURL(directURL, callbackURL string, role Role) string {
	q := url.Values{}
	q.Set("callback_url", callbackURL)
	q.Set("user_type", string(role))
	return strings.TrimSuffix(directURL, "/") + "/auth/user/google?" + q.Encode()
}

// BeginLogin records rawRole as the pending login and returns the URL to
// send the user to.
func (c *Callback) BeginLogin(ctx context.Context, directURL, callbackURL, rawRole string) (string, error) {
	if err := c.Store.SetPendingLogin(ctx, rawRole); err != nil {
		return "", err
	}
	return LoginURL(directURL, callbackURL, NormalizeRole(rawRole)), nil
}
