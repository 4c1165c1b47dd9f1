package cryptox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zefruta/storefront/pkg/cryptox"
)

func TestSealOpen(t *testing.T) {
	t.Parallel()

	s, err := cryptox.NewSealer([]byte("test-master-key-for-encryption-12345"))
	require.NoError(t, err)

	plaintext := []byte(`{"id":"u1","userType":"vendedor"}`)

	sealed, err := s.Seal(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, sealed)

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestSealUsesFreshNonce(t *testing.T) {
	t.Parallel()

	s, err := cryptox.NewSealer([]byte("nonce-check"))
	require.NoError(t, err)

	a, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestOpenRejects(t *testing.T) {
	t.Parallel()

	s, err := cryptox.NewSealer([]byte("key-one"))
	require.NoError(t, err)
	other, err := cryptox.NewSealer([]byte("key-two"))
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("secret"))
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err := other.Open(sealed)
		require.Error(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		tampered := append([]byte(nil), sealed...)
		tampered[len(tampered)-1] ^= 0xff
		_, err := s.Open(tampered)
		require.Error(t, err)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := s.Open([]byte("short"))
		require.ErrorIs(t, err, cryptox.ErrCiphertextTooShort)
	})
}

func TestNewSealerEmptyMaterial(t *testing.T) {
	t.Parallel()

	_, err := cryptox.NewSealer(nil)
	require.Error(t, err)
}

func TestLoadOrCreateKeyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys", "storefront.key")

	first, err := cryptox.LoadOrCreateKeyFile(path)
	require.NoError(t, err)
	require.Len(t, first, cryptox.MasterKeySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := cryptox.LoadOrCreateKeyFile(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
