package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/zefruta/storefront/api/storefront" // Swagger docs
	"github.com/zefruta/storefront/internal/storefront/store"
	"github.com/zefruta/storefront/pkg/authsdk"
	"github.com/zefruta/storefront/pkg/httpx"
	"github.com/zefruta/storefront/pkg/slogx"
)

//go:generate swag init -g router.go -d . -o ../../../api/storefront --packageName storefront

// RouterOptions carries the configuration the handlers need.
type RouterOptions struct {
	BuildVersion string
	APIURL       string // backend origin for OAuth and the proxy
	CallbackURL  string // absolute URL of /auth/callback
	FeedPaths    map[authsdk.Role]string
	RateLimits   httpx.RateLimits // zero value uses httpx.DefaultRateLimits
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	apiURL       *url.URL
	callbackURL  string
	feedPaths    map[authsdk.Role]string
	limits       httpx.RateLimits
	pages        *template.Template

	store    store.Store // durable session storage, pinged by readyz
	Sessions *authsdk.SessionStore
	Callback *authsdk.Callback
	Gateway  *authsdk.Gateway
	Guard    *authsdk.Guard
	Provider *authsdk.Provider
}

func NewRouter(opts RouterOptions, st store.Store, logger *slog.Logger) (*Router, error) {
	apiURL, err := url.Parse(opts.APIURL)
	if err != nil || apiURL.Scheme == "" || apiURL.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", opts.APIURL)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	limits := opts.RateLimits
	if limits == (httpx.RateLimits{}) {
		limits = httpx.DefaultRateLimits()
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: opts.BuildVersion,
		startTime:    time.Now(),
		logger:       logger,
		apiURL:       apiURL,
		callbackURL:  opts.CallbackURL,
		feedPaths:    opts.FeedPaths,
		limits:       limits,
		pages:        pages,
		store:        st,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r, nil
}

func (r *Router) ApplyRoutes() {
	r.registerPages()
	r.registerAuth()
	r.registerDashboards()
	r.registerProxy()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Storefront API
//	@version		0.1.0
//	@description	JSON endpoints of the marketplace storefront: session diagnostics, health
//	@description	probes and the same-origin proxy to the marketplace backend.
//
//	@host			localhost:3000
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerPages() {
	r.Mux.Handle("GET /{$}",
		httpx.Chain(http.HandlerFunc(r.handleHome),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
}

func (r *Router) registerAuth() {
	r.Mux.Handle("GET /auth",
		httpx.Chain(http.HandlerFunc(r.handleLogin),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)

	// Starting a login writes the pending marker; limit by IP + role.
	r.Mux.Handle("GET /auth/google",
		httpx.Chain(http.HandlerFunc(r.handleBeginLogin),
			httpx.RateLimitByIPAndField(r.limits.Strict, "type"),
		),
	)

	cb := &CallbackHandler{
		Callback: r.Callback,
		Sessions: r.Sessions,
		Render:   r.render,
	}
	for _, path := range []string{"/auth/callback", "/auth/google/callback"} {
		r.Mux.Handle("GET "+path,
			httpx.Chain(http.HandlerFunc(cb.HandleGet),
				httpx.RateLimitByIP(r.limits.Moderate),
			),
		)
		r.Mux.Handle("POST "+path,
			httpx.Chain(http.HandlerFunc(cb.HandlePost),
				httpx.RateLimitByIP(r.limits.Strict),
			),
		)
	}

	// Logout only on POST so a cross-site link or image cannot end the session.
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(r.handleLogout),
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)

	r.Mux.Handle("GET /auth/debug",
		httpx.Chain(http.HandlerFunc(r.handleDebug),
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)
}

func (r *Router) registerDashboards() {
	loading := http.HandlerFunc(r.handleLoading)

	for _, role := range authsdk.Roles() {
		path, _ := authsdk.DashboardPath(role)
		h := &DashboardHandler{
			Role:     role,
			FeedPath: r.feedPaths[role],
			Gateway:  r.Gateway,
			Render:   r.render,
		}

		r.Mux.Handle("GET "+path,
			httpx.Chain(h,
				httpx.RequireSession(r.Guard, role, loading),
				httpx.RateLimitByUser(r.limits.Lenient),
			),
		)
	}
}

func (r *Router) registerProxy() {
	r.Mux.Handle(ProxyPrefix+"/",
		httpx.Chain(NewProxy(r.apiURL, r.logger),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
}

func (r *Router) registerSystem() {
	// Health checks get polled; lenient limits.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Provider),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
}
