package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zefruta/storefront/internal/storefront/store"

	_ "modernc.org/sqlite"
)

// Sealer encrypts values before they reach disk. cryptox.Sealer satisfies it.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// Store is the durable session storage. Values survive restarts and are
// shared by every process pointed at the same file.
type Store struct {
	db     *sql.DB
	sealer Sealer
	dsn    string
}

var _ store.Store = (*Store)(nil)

// NewStore opens the database at dsn. sealer may be nil, in which case values
// are written in clear text.
func NewStore(dsn string, sealer Sealer) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One writer keeps token-then-user write ordering observable to readers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, sealer: sealer, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value  []byte
		sealed bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, sealed FROM session_values WHERE key = ?`, key,
	).Scan(&value, &sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if sealed {
		if s.sealer == nil {
			return "", false, fmt.Errorf("value %q is sealed but no sealer is configured", key)
		}
		value, err = s.sealer.Open(value)
		if err != nil {
			return "", false, fmt.Errorf("failed to open value %q: %w", key, err)
		}
	}
	return string(value), true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	data := []byte(value)
	sealed := false
	if s.sealer != nil {
		var err error
		if data, err = s.sealer.Seal(data); err != nil {
			return fmt.Errorf("failed to seal value %q: %w", key, err)
		}
		sealed = true
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_values (key, value, sealed, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			sealed = excluded.sealed,
			updated_at = excluded.updated_at`,
		key, data, sealed,
	)
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_values WHERE key = ?`, key)
	return err
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM session_values ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
