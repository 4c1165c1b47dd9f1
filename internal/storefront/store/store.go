package store

import (
	"context"
	"errors"

	"github.com/zefruta/storefront/pkg/authsdk"
)

var ErrClosed = errors.New("store: closed")

// Store is the key/value backend behind the session core. Concrete drivers
// (sqlite for durable state, memory for per-process state) implement it.
// Only the authsdk.SessionStore reads or writes through it; nothing else in
// the front-end touches session keys directly.
type Store interface {
	authsdk.Storage

	// Keys lists the stored keys in lexical order. Used by diagnostics.
	Keys(ctx context.Context) ([]string, error)

	ApplyMigrations() error

	// Ping verifies the backend is still usable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
