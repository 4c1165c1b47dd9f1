package httpx

import (
	"context"

	"github.com/zefruta/storefront/pkg/authsdk"
)

type ctxKey string

const CtxKeyUser ctxKey = "user"

// WithUser stores the session user admitted by RequireSession.
func WithUser(ctx context.Context, u *authsdk.User) context.Context {
	return context.WithValue(ctx, CtxKeyUser, u)
}

// UserFromContext returns the user admitted by RequireSession, if any.
func UserFromContext(ctx context.Context) (*authsdk.User, bool) {
	u, ok := ctx.Value(CtxKeyUser).(*authsdk.User)
	return u, ok && u != nil
}
