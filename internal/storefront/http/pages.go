package http

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/zefruta/storefront/pkg/authsdk"
	"github.com/zefruta/storefront/pkg/httpx"
	"github.com/zefruta/storefront/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

// RenderFunc writes the named page with data.
type RenderFunc func(w http.ResponseWriter, r *http.Request, status int, page string, data any)

func parsePages() (*template.Template, error) {
	funcs := template.FuncMap{
		"dashboard": func(role authsdk.Role) string {
			p, ok := authsdk.DashboardPath(role)
			if !ok {
				return "/"
			}
			return p
		},
	}
	return template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

func (r *Router) render(w http.ResponseWriter, req *http.Request, status int, page string, data any) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := r.pages.ExecuteTemplate(w, page, data); err != nil {
		slogx.FromContext(req.Context()).Error("rendering page failed", "page", page, "err", err)
	}
}

type roleOption struct {
	Role  authsdk.Role
	Label string
}

func roleOptions() []roleOption {
	out := make([]roleOption, 0, 4)
	for _, role := range authsdk.Roles() {
		out = append(out, roleOption{Role: role, Label: role.Label()})
	}
	return out
}

func (r *Router) handleHome(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	data := struct {
		Roles    []roleOption
		LoggedIn bool
		Role     authsdk.Role
		User     *authsdk.User
	}{Roles: roleOptions()}

	if r.Sessions.IsValid(ctx) {
		data.LoggedIn = true
		data.Role = r.Sessions.Role(ctx)
		data.User, _ = r.Sessions.CurrentUser(ctx)
	}
	r.render(w, req, http.StatusOK, "home.html", data)
}

// handleLogin shows the Google sign-in for the role picked on the home page.
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	raw := req.URL.Query().Get("type")
	if raw == "" {
		httpx.SeeOther(w, req, "/")
		return
	}

	role := authsdk.NormalizeRole(raw)
	r.render(w, req, http.StatusOK, "login.html", struct {
		Role    authsdk.Role
		RawRole string
		Label   string
	}{role, raw, role.Label()})
}

func (r *Router) handleBeginLogin(w http.ResponseWriter, req *http.Request) {
	raw := req.URL.Query().Get("type")
	if raw == "" {
		httpx.SeeOther(w, req, "/")
		return
	}

	target, err := r.Callback.BeginLogin(req.Context(), r.apiURL.String(), r.callbackURL, raw)
	if err != nil {
		slogx.FromContext(req.Context()).Error("starting login failed", "err", err)
		r.render(w, req, http.StatusInternalServerError, "error.html", errorPage{
			Message: "Não foi possível iniciar o login.",
		})
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, req, target, http.StatusFound)
}

// handleLogout clears the session and reloads the home page.
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	if err := r.Provider.Logout(req.Context()); err != nil {
		slogx.FromContext(req.Context()).Error("logout failed", "err", err)
	}
	httpx.SeeOther(w, req, "/")
}

// debugResponse never contains the token itself.
type debugResponse struct {
	authsdk.Snapshot

	Ready       bool     `json:"ready"`
	DurableKeys []string `json:"durableKeys"`
	Error       string   `json:"error,omitempty"`
}

// handleDebug godoc
//
//	@Summary		Session diagnostics
//	@Description	Snapshot of the stored session. The token itself is never included, only
//	@Description	a fingerprint.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	debugResponse
//	@Router			/auth/debug [get]
func (r *Router) handleDebug(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	resp := debugResponse{
		Snapshot: r.Sessions.Snapshot(ctx),
		Ready:    r.Provider.Ready(),
	}
	keys, err := r.store.Keys(ctx)
	if err != nil {
		resp.Error = err.Error()
	}
	resp.DurableKeys = keys

	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (r *Router) handleLoading(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Refresh", "1")
	r.render(w, req, http.StatusOK, "loading.html", nil)
}

type errorPage struct {
	Message  string
	CleanURL string
}

var errFeedUnavailable = errors.New("feed unavailable")
