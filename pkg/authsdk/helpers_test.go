package authsdk_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/zefruta/storefront/internal/storefront/store/drivers/memory"
	"github.com/zefruta/storefront/pkg/authsdk"
)

var errBroken = errors.New("storage broken")

func makeToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-only"))
	require.NoError(t, err)
	return token
}

func futureExp() int64 { return time.Now().Add(time.Hour).Unix() }

func newSessions(t *testing.T, opts ...authsdk.Option) (*authsdk.SessionStore, *memory.Store, *memory.Store) {
	t.Helper()
	durable := memory.NewStore()
	transient := memory.NewStore()
	t.Cleanup(func() {
		_ = durable.Close()
		_ = transient.Close()
	})
	return authsdk.NewSessionStore(durable, transient, opts...), durable, transient
}

// flakyStorage fails the operations whose flags are set.
type flakyStorage struct {
	authsdk.Storage
	failGet   bool
	failSetOn string
	failDel   bool
}

func (f *flakyStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errBroken
	}
	return f.Storage.Get(ctx, key)
}

func (f *flakyStorage) Set(ctx context.Context, key, value string) error {
	if f.failSetOn == key {
		return errBroken
	}
	return f.Storage.Set(ctx, key, value)
}

func (f *flakyStorage) Delete(ctx context.Context, key string) error {
	if f.failDel {
		return errBroken
	}
	return f.Storage.Delete(ctx, key)
}

type readyFunc func() bool

func (f readyFunc) Ready() bool { return f() }
