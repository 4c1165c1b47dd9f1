package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/zefruta/storefront/pkg/authsdk"
	"github.com/zefruta/storefront/pkg/httpx"
	"github.com/zefruta/storefront/pkg/slogx"
)

// maxFragmentBytes bounds the bridge form.
const maxFragmentBytes = 16 << 10

// CallbackHandler finishes the OAuth redirect. Tokens in the query are
// handled on GET. Tokens in the fragment never reach the server, so GET
// without a token serves a bridge page that posts the fragment back.
type CallbackHandler struct {
	Callback *authsdk.Callback
	Sessions *authsdk.SessionStore
	Render   RenderFunc
}

func (h *CallbackHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	loc := authsdk.NewURLLocation(r.URL)
	res := h.Callback.Handle(r.Context(), loc)

	if errors.Is(res.Err, authsdk.ErrTokenMissing) {
		if h.redirectExisting(w, r) {
			return
		}
		if r.URL.Query().Get("error") != "" {
			h.fail(w, r, res, cleanAddress(loc))
			return
		}
		h.Render(w, r, http.StatusOK, "bridge.html", struct{ Action string }{r.URL.Path})
		return
	}

	h.finish(w, r, res, cleanAddress(loc))
}

func (h *CallbackHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFragmentBytes)
	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed form")
		return
	}

	u := *r.URL
	u.RawQuery = ""
	if frag := strings.TrimPrefix(r.PostForm.Get("fragment"), "#"); frag != "" {
		parsed, err := url.Parse("#" + frag)
		if err == nil {
			u.Fragment = parsed.Fragment
			u.RawFragment = parsed.RawFragment
		}
	}

	loc := authsdk.NewURLLocation(&u)
	res := h.Callback.Handle(r.Context(), loc)

	if errors.Is(res.Err, authsdk.ErrTokenMissing) && h.redirectExisting(w, r) {
		return
	}
	h.finish(w, r, res, cleanAddress(loc))
}

// redirectExisting sends an already signed-in user to their dashboard. A
// revisited callback address is not a failed login.
func (h *CallbackHandler) redirectExisting(w http.ResponseWriter, r *http.Request) bool {
	ctx := r.Context()
	if !h.Sessions.IsValid(ctx) {
		return false
	}
	target, ok := authsdk.DashboardPath(h.Sessions.Role(ctx))
	if !ok {
		target = "/"
	}
	httpx.SeeOther(w, r, target)
	return true
}

func (h *CallbackHandler) finish(w http.ResponseWriter, r *http.Request, res authsdk.CallbackResult, clean string) {
	if !res.Success {
		h.fail(w, r, res, clean)
		return
	}

	target, ok := authsdk.DashboardPath(res.Role)
	if !ok {
		target = "/"
	}
	slogx.FromContext(r.Context()).Info("login completed", "role", res.Role)
	httpx.SeeOther(w, r, target)
}

func (h *CallbackHandler) fail(w http.ResponseWriter, r *http.Request, res authsdk.CallbackResult, clean string) {
	msg := "Erro no login. Tente novamente."
	switch {
	case errors.Is(res.Err, authsdk.ErrTokenMissing):
		msg = "Token não encontrado. Tente fazer login novamente."
	case errors.Is(res.Err, authsdk.ErrInvalidToken):
		msg = "Token inválido. Tente fazer login novamente."
	}

	w.Header().Set("Refresh", "3; url=/")
	h.Render(w, r, http.StatusBadRequest, "error.html", errorPage{Message: msg, CleanURL: clean})
}

// cleanAddress is the address with callback parameters removed, for the
// browser history.
func cleanAddress(loc authsdk.Location) string {
	return authsdk.StripCallbackParams(loc.Current()).RequestURI()
}
