package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zefruta/storefront/internal/storefront/store/drivers/sqlite"
	"github.com/zefruta/storefront/pkg/cryptox"
)

func openStore(t *testing.T, path string, sealer sqlite.Sealer) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path), sealer)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSealer(t *testing.T) *cryptox.Sealer {
	t.Helper()
	s, err := cryptox.NewSealer([]byte("sqlite-test-key"))
	require.NoError(t, err)
	return s
}

func TestStoreCRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "session.db"), newSealer(t))

	_, ok, err := s.Get(ctx, "zefruta_auth_token")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "zefruta_auth_token", "a.b.c"))
	require.NoError(t, s.Set(ctx, "zefruta_auth_token", "d.e.f"))

	v, ok, err := s.Get(ctx, "zefruta_auth_token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "d.e.f", v)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"zefruta_auth_token"}, keys)

	require.NoError(t, s.Delete(ctx, "zefruta_auth_token"))
	_, ok, err = s.Get(ctx, "zefruta_auth_token")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreSurvivesReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")
	sealer := newSealer(t)

	first := openStore(t, path, sealer)
	require.NoError(t, first.Set(ctx, "k", "persisted"))
	require.NoError(t, first.Close())

	second := openStore(t, path, sealer)
	v, ok, err := second.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "persisted", v)
}

func TestStoreSealedValueNeedsKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	sealed := openStore(t, path, newSealer(t))
	require.NoError(t, sealed.Set(ctx, "k", "secret"))
	require.NoError(t, sealed.Close())

	plain := openStore(t, path, nil)
	_, _, err := plain.Get(ctx, "k")
	require.Error(t, err)

	other, err := cryptox.NewSealer([]byte("another-key"))
	require.NoError(t, err)
	wrongKey := openStore(t, path, other)
	_, _, err = wrongKey.Get(ctx, "k")
	require.Error(t, err)
}

func TestMigrationVersion(t *testing.T) {
	t.Parallel()
	s := openStore(t, filepath.Join(t.TempDir(), "session.db"), nil)

	version, dirty, err := s.MigrationVersion()
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)

	require.NoError(t, s.ApplyMigrations(), "re-applying is a no-op")
}

func TestRollbackMigrations(t *testing.T) {
	t.Parallel()
	s := openStore(t, filepath.Join(t.TempDir(), "session.db"), nil)

	require.NoError(t, s.RollbackMigrations(5))
	version, _, err := s.MigrationVersion()
	require.NoError(t, err)
	require.Zero(t, version)

	require.NoError(t, s.RollbackMigrations(1), "already at the bottom")
	require.NoError(t, s.ApplyMigrations())
	version, _, err = s.MigrationVersion()
	require.NoError(t, err)
	require.Equal(t, uint(1), version)
}
