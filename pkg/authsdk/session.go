package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/zefruta/storefront/pkg/cryptox"
	"github.com/zefruta/storefront/pkg/idx"
	"github.com/zefruta/storefront/pkg/jwtx"
)

// DefaultProfileTimeout bounds the background profile request after login.
const DefaultProfileTimeout = 10 * time.Second

// ProfileFetcher loads the extended user profile for a bearer token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token string) (map[string]any, error)
}

// SessionStore owns the authentication state. It is the only component that
// reads or writes the storage keys; the callback, gateway and guard all go
// through it, so the expiry rule lives in one place.
//
// Build exactly one per running process and pass it by reference.
type SessionStore struct {
	durable   Storage
	transient Storage

	profiles       ProfileFetcher
	profileTimeout time.Duration
	log            logr.Logger
	now            func() time.Time

	// mu serialises write sequences (commit, merge, clear) in this process.
	mu sync.Mutex
	wg sync.WaitGroup
}

// Option configures a SessionStore.
type Option func(*SessionStore)

// WithProfileFetcher enables profile enrichment after commit.
func WithProfileFetcher(f ProfileFetcher) Option {
	return func(s *SessionStore) { s.profiles = f }
}

// WithProfileTimeout overrides DefaultProfileTimeout.
func WithProfileTimeout(d time.Duration) Option {
	return func(s *SessionStore) {
		if d > 0 {
			s.profileTimeout = d
		}
	}
}

// WithLogger sets the library logger. A zero logr.Logger discards output.
func WithLogger(l logr.Logger) Option {
	return func(s *SessionStore) { s.log = resolveLogger(l) }
}

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionStore wires the store to its durable (token, user) and transient
// (pending-login marker) storage.
func NewSessionStore(durable, transient Storage, opts ...Option) *SessionStore {
	s := &SessionStore{
		durable:        durable,
		transient:      transient,
		profileTimeout: DefaultProfileTimeout,
		log:            logr.Discard(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func resolveLogger(l logr.Logger) logr.Logger {
	if l.GetSink() == nil {
		return logr.Discard()
	}
	return l
}

// Commit decodes token and persists it with the derived user record. The
// role comes from rawRole, or from the token's "type" claim when rawRole is
// empty. On decode failure nothing is written and the error wraps
// ErrInvalidToken.
//
// Profile enrichment runs in the background afterwards; its outcome never
// changes the result of Commit.
func (s *SessionStore) Commit(ctx context.Context, token, rawRole string) (User, error) {
	claims, err := jwtx.Decode(token)
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if rawRole == "" {
		rawRole = claims.Type
	}

	user := User{
		Claims:       claims,
		UserType:     NormalizeRole(rawRole),
		OriginalType: rawRole,
		SessionID:    idx.New().String(),
		LoginTime:    s.now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("failed to encode user: %w", err)
	}

	if err := s.write(ctx, token, string(data)); err != nil {
		return User{}, err
	}

	s.log.Info("session committed",
		"session_id", user.SessionID,
		"role", user.UserType,
		"token_fp", cryptox.FingerprintToken(token),
	)

	s.enrichInBackground(ctx, token)
	return user, nil
}

// write stores token then user. Readers tolerate a token without a user for
// the instant between the two writes, never the reverse, so a failed user
// write removes both keys.
func (s *SessionStore) write(ctx context.Context, token, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.durable.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := s.durable.Set(ctx, UserKey, user); err != nil {
		_ = s.durable.Delete(ctx, UserKey)
		_ = s.durable.Delete(ctx, TokenKey)
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

// CurrentToken returns the stored token, or "" when there is none.
func (s *SessionStore) CurrentToken(ctx context.Context) (string, error) {
	token, ok, err := s.durable.Get(ctx, TokenKey)
	if err != nil || !ok {
		return "", err
	}
	return token, nil
}

// CurrentUser returns the stored user record. A record that does not parse
// is treated as absent.
func (s *SessionStore) CurrentUser(ctx context.Context) (*User, error) {
	raw, ok, err := s.durable.Get(ctx, UserKey)
	if err != nil || !ok {
		return nil, err
	}

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.V(1).Info("ignoring unreadable user record", "err", err.Error())
		return nil, nil
	}
	return &u, nil
}

// IsValid reports token present AND (no exp claim OR exp in the future).
// A token without exp never expires here; the backend still rejects it when
// it is no longer acceptable. Storage failures count as "not valid".
func (s *SessionStore) IsValid(ctx context.Context) bool {
	token, err := s.CurrentToken(ctx)
	if err != nil {
		s.log.Error(err, "reading token failed, treating session as absent")
		return false
	}
	if token == "" {
		return false
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		s.log.Error(err, "reading user failed, treating session as absent")
		return false
	}
	if user != nil && user.Expired(s.now()) {
		return false
	}
	return true
}

// Role returns the session's normalized role, RoleComprador when unknown.
func (s *SessionStore) Role(ctx context.Context) Role {
	user, err := s.CurrentUser(ctx)
	if err != nil || user == nil {
		return RoleComprador
	}
	if user.UserType != "" {
		return NormalizeRole(string(user.UserType))
	}
	return NormalizeRole(user.Type)
}

// Clear removes token, user and the pending-login marker. Every key is
// attempted even when one delete fails.
func (s *SessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := errors.Join(
		s.durable.Delete(ctx, TokenKey),
		s.durable.Delete(ctx, UserKey),
		s.transient.Delete(ctx, PendingLoginKey),
	)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.log.Info("session cleared")
	return nil
}

// SetPendingLogin records the role picked before leaving for the identity
// provider. The marker lives in transient storage only.
func (s *SessionStore) SetPendingLogin(ctx context.Context, rawRole string) error {
	return s.transient.Set(ctx, PendingLoginKey, rawRole)
}

// PendingLogin returns the marker set by SetPendingLogin, if still present.
func (s *SessionStore) PendingLogin(ctx context.Context) (string, bool) {
	v, ok, err := s.transient.Get(ctx, PendingLoginKey)
	if err != nil {
		s.log.V(1).Info("pending-login marker unavailable", "err", err.Error())
		return "", false
	}
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Snapshot collects the current state for diagnostics.
func (s *SessionStore) Snapshot(ctx context.Context) Snapshot {
	token, _ := s.CurrentToken(ctx)
	user, _ := s.CurrentUser(ctx)
	pending, _ := s.PendingLogin(ctx)

	return Snapshot{
		HasToken:         token != "",
		Valid:            s.IsValid(ctx),
		Role:             s.Role(ctx),
		TokenFingerprint: cryptox.FingerprintToken(token),
		PendingLogin:     pending,
		User:             user,
	}
}

// Wait blocks until background profile enrichment has finished.
func (s *SessionStore) Wait() {
	s.wg.Wait()
}
