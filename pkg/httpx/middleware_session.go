package httpx

import (
	"net/http"

	"github.com/zefruta/storefront/pkg/authsdk"
	"github.com/zefruta/storefront/pkg/slogx"
)

// RequireSession gates next on guard. While the startup check is running
// the loading handler answers instead; redirects use 303 so a POST never
// gets replayed. An empty role admits any valid session.
func RequireSession(guard *authsdk.Guard, role authsdk.Role, loading http.Handler) Middleware {
	if loading == nil {
		loading = http.HandlerFunc(defaultLoading)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			d := guard.Evaluate(ctx, role)
			switch d.Outcome {
			case authsdk.DecisionLoading:
				loading.ServeHTTP(w, r)
				return
			case authsdk.DecisionRedirectUnauthenticated, authsdk.DecisionRedirectWrongRole:
				log.Debug("guard redirect", "outcome", d.Outcome.String(), "location", d.Location)
				SeeOther(w, r, d.Location)
				return
			}

			user, err := guard.Store.CurrentUser(ctx)
			if err != nil {
				log.Warn("reading session user failed", "err", err)
			}
			if user != nil {
				ctx = WithUser(ctx, user)
			}
			NoCache(w)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func defaultLoading(w http.ResponseWriter, r *http.Request) {
	NoCache(w)
	w.Header().Set("Refresh", "1")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Carregando..."))
}
