package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	storefronthttp "github.com/zefruta/storefront/internal/storefront/http"
	"github.com/zefruta/storefront/internal/storefront/store/drivers/memory"
	"github.com/zefruta/storefront/pkg/authsdk"
	"github.com/zefruta/storefront/pkg/httpx"
	"github.com/zefruta/storefront/pkg/slogx"
)

type backend struct {
	*httptest.Server

	mu       sync.Mutex
	lastAuth string
	lastURI  string
	reject   atomic.Bool
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.lastAuth = r.Header.Get("Authorization")
		b.lastURI = r.URL.RequestURI()
		b.mu.Unlock()

		if b.reject.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case authsdk.ProfilePath:
			_, _ = io.WriteString(w, `{"telefone":"555"}`)
		default:
			_, _ = io.WriteString(w, `[{"name":"banana"}]`)
		}
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *backend) seen() (auth, uri string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAuth, b.lastURI
}

type fixture struct {
	router   *storefronthttp.Router
	sessions *authsdk.SessionStore
	backend  *backend
}

func newFixture(t *testing.T, configure ...func(*storefronthttp.RouterOptions)) *fixture {
	t.Helper()

	be := newBackend(t)
	durable := memory.NewStore()
	transient := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lib := slogx.Logr(logger)

	client := authsdk.NewAPIClient(be.URL)
	sessions := authsdk.NewSessionStore(durable, transient,
		authsdk.WithLogger(lib),
		authsdk.WithProfileFetcher(client),
	)
	provider := authsdk.NewProvider(sessions, lib)
	provider.Start(context.Background())
	<-provider.Done()

	opts := storefronthttp.RouterOptions{
		BuildVersion: "test",
		APIURL:       be.URL,
		CallbackURL:  "http://shop.test/auth/callback",
		FeedPaths: map[authsdk.Role]string{
			authsdk.RoleComprador: "/products",
			authsdk.RoleVendedor:  "/products/mine",
		},
	}
	for _, fn := range configure {
		fn(&opts)
	}

	router, err := storefronthttp.NewRouter(opts, durable, logger)
	require.NoError(t, err)

	router.Sessions = sessions
	router.Callback = &authsdk.Callback{Store: sessions, Logger: lib}
	router.Gateway = authsdk.NewGateway(client, sessions, lib)
	router.Guard = &authsdk.Guard{Store: sessions, Provider: provider}
	router.Provider = provider
	router.ApplyRoutes()

	t.Cleanup(sessions.Wait)
	return &fixture{router: router, sessions: sessions, backend: be}
}

func (f *fixture) do(t *testing.T, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	req.RemoteAddr = "192.0.2.10:4321"
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T, role string) string {
	t.Helper()
	token := signToken(t, jwt.MapClaims{"sub": "u1", "nome": "Ana", "exp": time.Now().Add(time.Hour).Unix()})
	_, err := f.sessions.Commit(context.Background(), token, role)
	require.NoError(t, err)
	f.sessions.Wait()
	return token
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend"))
	require.NoError(t, err)
	return token
}

func TestHomeListsRoles(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `/auth?type=vendedor`)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	f.login(t, "entregador")
	rec = f.do(t, http.MethodGet, "/", nil)
	require.Contains(t, rec.Body.String(), "/entregador/dashboard")
}

func TestLoginPages(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/auth", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	rec = f.do(t, http.MethodGet, "/auth?type=vendedor", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/auth/google?type=vendedor")

	rec = f.do(t, http.MethodGet, "/auth/google?type=vendedor", nil)
	require.Equal(t, http.StatusFound, rec.Code)

	target, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/auth/user/google", target.Path)
	require.Equal(t, "http://shop.test/auth/callback", target.Query().Get("callback_url"))
	require.Equal(t, "vendedor", target.Query().Get("user_type"))

	pending, ok := f.sessions.PendingLogin(context.Background())
	require.True(t, ok)
	require.Equal(t, "vendedor", pending)
}

func TestCallbackQueryToken(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})

	rec := f.do(t, http.MethodGet, "/auth/callback?token="+token+"&type=vendedor", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/vendedor/dashboard", rec.Header().Get("Location"))
	require.True(t, f.sessions.IsValid(context.Background()))
}

func TestCallbackRoleFromTokenType(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix(), "type": "vendedor"})

	rec := f.do(t, http.MethodGet, "/auth/google/callback?token="+token, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/vendedor/dashboard", rec.Header().Get("Location"))
}

func TestCallbackWithoutToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/auth/callback", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `name="fragment"`)
	require.False(t, f.sessions.IsValid(context.Background()))

	rec = f.do(t, http.MethodGet, "/auth/callback?error=access_denied", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "3; url=/", rec.Header().Get("Refresh"))
	require.Contains(t, rec.Body.String(), "Token não encontrado")
}

func TestCallbackRevisitedWithSession(t *testing.T) {
	f := newFixture(t)
	f.login(t, "admin")

	rec := f.do(t, http.MethodGet, "/auth/callback", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
}

func TestCallbackFragmentBridge(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, jwt.MapClaims{"sub": "u1"})

	form := url.Values{"fragment": {"#token=" + token + "&type=entregador"}}
	rec := f.do(t, http.MethodPost, "/auth/callback", strings.NewReader(form.Encode()))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/entregador/dashboard", rec.Header().Get("Location"))
	require.Equal(t, authsdk.RoleEntregador, f.sessions.Role(context.Background()))
}

func TestCallbackInvalidToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/auth/callback?token=garbage&type=vendedor", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Token inválido")
	require.NotContains(t, rec.Body.String(), "garbage")
	require.False(t, f.sessions.IsValid(context.Background()))
}

func TestDashboardGuard(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/vendedor/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/auth", rec.Header().Get("Location"))

	token := f.login(t, "vendedor")

	rec = f.do(t, http.MethodGet, "/comprador/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/vendedor/dashboard", rec.Header().Get("Location"))

	rec = f.do(t, http.MethodGet, "/vendedor/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "banana")
	require.Contains(t, rec.Body.String(), "Ana")

	auth, uri := f.backend.seen()
	require.Equal(t, "Bearer "+token, auth)
	require.Equal(t, "/products/mine", uri)
}

func TestDashboardSessionExpiredByBackend(t *testing.T) {
	f := newFixture(t)
	f.login(t, "comprador")
	f.backend.reject.Store(true)

	rec := f.do(t, http.MethodGet, "/comprador/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/auth?type=comprador", rec.Header().Get("Location"))
	require.False(t, f.sessions.IsValid(context.Background()))
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.login(t, "vendedor")

	rec := f.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.False(t, f.sessions.IsValid(context.Background()))
}

func TestLogoutRejectsGet(t *testing.T) {
	f := newFixture(t)
	f.login(t, "vendedor")

	rec := f.do(t, http.MethodGet, "/auth/logout", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.True(t, f.sessions.IsValid(context.Background()))
}

func TestConfiguredRateLimits(t *testing.T) {
	f := newFixture(t, func(o *storefronthttp.RouterOptions) {
		o.RateLimits = httpx.DefaultRateLimits()
		o.RateLimits.Public = httpx.RateLimit{Requests: 1, Window: time.Minute, Burst: 1}
	})

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/", nil).Code)
	rec := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	// other profiles keep their defaults
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/livez", nil).Code)
}

func TestDebugOmitsToken(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "vendedor")

	rec := f.do(t, http.MethodGet, "/auth/debug", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), token)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["hasToken"])
	require.Equal(t, "vendedor", body["role"])
	require.Equal(t, true, body["ready"])
	require.ElementsMatch(t, []any{authsdk.TokenKey, authsdk.UserKey}, body["durableKeys"])
}

func TestProxyForwardsToBackend(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/proxy/products?cat=frutas", nil)
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set("Cookie", "secret=1")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Body.String(), "banana")

	auth, uri := f.backend.seen()
	require.Equal(t, "Bearer abc", auth)
	require.Equal(t, "/products?cat=frutas", uri)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/livez", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body storefronthttp.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "test", body.Version)
	require.Equal(t, "ok", body.Checks["storage"])
}

func TestSwaggerDoc(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Info  struct{ Title string } `json:"info"`
		Paths map[string]any         `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, "Storefront API", doc.Info.Title)
	require.Contains(t, doc.Paths, "/auth/debug")
	require.Contains(t, doc.Paths, "/readyz")
}
