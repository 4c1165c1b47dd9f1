package authsdk_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/zefruta/storefront/pkg/authsdk"
)

func location(t *testing.T, raw string) *authsdk.URLLocation {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return authsdk.NewURLLocation(u)
}

func TestCallbackQueryToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, _, _ := newSessions(t)
	cb := &authsdk.Callback{Store: sessions}

	token := makeToken(t, jwt.MapClaims{"sub": "u1", "exp": futureExp()})
	loc := location(t, "https://shop.example/auth/callback?token="+token+"&type=vendedor&keep=1")

	res := cb.Handle(ctx, loc)
	require.True(t, res.Success)
	require.NoError(t, res.Err)
	require.Equal(t, authsdk.RoleVendedor, res.Role)
	require.Equal(t, "vendedor", res.RawRole)

	require.Equal(t, 1, loc.Replacements())
	require.Equal(t, "https://shop.example/auth/callback?keep=1", loc.Current().String())

	got, err := sessions.CurrentToken(ctx)
	require.NoError(t, err)
	require.Equal(t, token, got)
}

func TestCallbackFragmentToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, _, _ := newSessions(t)
	cb := &authsdk.Callback{Store: sessions}

	token := makeToken(t, jwt.MapClaims{"sub": "u1"})
	loc := location(t, "https://shop.example/auth/callback#token="+token+"&userType=entregador")

	res := cb.Handle(ctx, loc)
	require.True(t, res.Success)
	require.Equal(t, authsdk.RoleEntregador, res.Role)
	require.Empty(t, loc.Current().Fragment)
	require.Equal(t, "https://shop.example/auth/callback", loc.Current().String())
}

func TestCallbackQueryWinsOverFragment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, _, _ := newSessions(t)
	cb := &authsdk.Callback{Store: sessions}

	queryToken := makeToken(t, jwt.MapClaims{"sub": "from-query"})
	fragToken := makeToken(t, jwt.MapClaims{"sub": "from-fragment"})
	loc := location(t, "https://shop.example/cb?token="+queryToken+"#token="+fragToken+"&type=admin")

	res := cb.Handle(ctx, loc)
	require.True(t, res.Success)
	require.Equal(t, authsdk.RoleAdmin, res.Role)

	user, err := sessions.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "from-query", user.ID)
}

func TestCallbackUsesPendingLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, _, _ := newSessions(t)
	cb := &authsdk.Callback{Store: sessions}

	require.NoError(t, sessions.SetPendingLogin(ctx, "entregador"))

	token := makeToken(t, jwt.MapClaims{"sub": "u", "type": "vendedor"})
	res := cb.Handle(ctx, location(t, "https://shop.example/cb?token="+token))
	require.True(t, res.Success)
	require.Equal(t, authsdk.RoleEntregador, res.Role)
}

func TestCallbackTokenTypeWithoutHint(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, _, _ := newSessions(t)
	cb := &authsdk.Callback{Store: sessions}

	token := makeToken(t, jwt.MapClaims{"sub": "u", "exp": futureExp(), "type": "vendedor"})
	res := cb.Handle(ctx, location(t, "https://shop.example/cb?token="+token))
	require.True(t, res.Success)
	require.Equal(t, authsdk.RoleVendedor, res.Role)
	require.Equal(t, authsdk.RoleVendedor, sessions.Role(ctx))
}

func TestCallbackMissingToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, durable, _ := newSessions(t)
	cb := &authsdk.Callback{Store: sessions}

	loc := location(t, "https://shop.example/cb?type=vendedor")
	res := cb.Handle(ctx, loc)

	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, authsdk.ErrTokenMissing)
	require.Equal(t, "token not found", res.Err.Error())
	require.Zero(t, loc.Replacements())

	keys, err := durable.Keys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestCallbackInvalidToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, durable, _ := newSessions(t)
	cb := &authsdk.Callback{Store: sessions}

	loc := location(t, "https://shop.example/cb?token=garbage&type=vendedor")
	res := cb.Handle(ctx, loc)

	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, authsdk.ErrInvalidToken)
	require.Equal(t, 1, loc.Replacements())

	keys, err := durable.Keys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestCallbackIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, _, _ := newSessions(t)
	cb := &authsdk.Callback{Store: sessions}

	token := makeToken(t, jwt.MapClaims{"sub": "u", "exp": futureExp()})
	loc := location(t, "https://shop.example/cb?token="+token+"&type=vendedor")

	first := cb.Handle(ctx, loc)
	require.True(t, first.Success)
	before, err := sessions.CurrentUser(ctx)
	require.NoError(t, err)

	second := cb.Handle(ctx, loc)
	require.ErrorIs(t, second.Err, authsdk.ErrTokenMissing)
	require.Equal(t, 1, loc.Replacements())

	after, err := sessions.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.True(t, sessions.IsValid(ctx))
}

func TestStripCallbackParams(t *testing.T) {
	t.Parallel()

	u, err := url.Parse("https://shop.example/cb?token=t&type=x&userType=y&error=e&code=c&state=s&page=2#token=t")
	require.NoError(t, err)

	require.Equal(t, "https://shop.example/cb?page=2", authsdk.StripCallbackParams(u).String())
	require.Contains(t, u.String(), "token=t", "input must not be modified")
}

func TestBeginLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions, _, _ := newSessions(t)
	cb := &authsdk.Callback{Store: sessions}

	target, err := cb.BeginLogin(ctx, "https://api.example/", "https://shop.example/auth/callback", "vendedor")
	require.NoError(t, err)
	require.Equal(t,
		"https://api.example/auth/user/google?callback_url=https%3A%2F%2Fshop.example%2Fauth%2Fcallback&user_type=vendedor",
		target,
	)

	pending, ok := sessions.PendingLogin(ctx)
	require.True(t, ok)
	require.Equal(t, "vendedor", pending)
}
