package http

import (
	"errors"
	"net/http"

	"github.com/zefruta/storefront/pkg/authsdk"
	"github.com/zefruta/storefront/pkg/httpx"
	"github.com/zefruta/storefront/pkg/slogx"
)

// DashboardHandler renders a role's landing page with the backend feed
// fetched through the Gateway. It runs behind RequireSession.
type DashboardHandler struct {
	Role     authsdk.Role
	FeedPath string
	Gateway  *authsdk.Gateway
	Render   RenderFunc
}

type dashboardPage struct {
	Role      authsdk.Role
	Label     string
	User      *authsdk.User
	Feed      any
	FeedError string
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	page := dashboardPage{Role: h.Role, Label: h.Role.Label()}
	page.User, _ = httpx.UserFromContext(ctx)

	if h.FeedPath != "" {
		var feed any
		err := h.Gateway.GetJSON(ctx, h.FeedPath, &feed)

		var statusErr *authsdk.StatusError
		switch {
		case err == nil:
			page.Feed = feed
		case errors.Is(err, authsdk.ErrSessionExpired):
			httpx.SeeOther(w, r, "/auth?type="+string(h.Role))
			return
		case errors.As(err, &statusErr):
			log.Warn("dashboard feed rejected", "status", statusErr.StatusCode, "path", h.FeedPath)
			page.FeedError = errFeedUnavailable.Error()
		default:
			log.Warn("dashboard feed failed", "err", err, "path", h.FeedPath)
			page.FeedError = errFeedUnavailable.Error()
		}
	}

	h.Render(w, r, http.StatusOK, "dashboard.html", page)
}
