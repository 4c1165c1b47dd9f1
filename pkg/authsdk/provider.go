package authsdk

import (
	"context"
	"errors"
	"sync"

	"github.com/go-logr/logr"
)

// Provider runs the one-time session check at startup and exposes whether
// it has finished.
type Provider struct {
	store *SessionStore
	log   logr.Logger

	once  sync.Once
	done  chan struct{}
	mu    sync.RWMutex
	ready bool
}

// NewProvider creates a provider for store. Call Start once.
func NewProvider(store *SessionStore, logger logr.Logger) *Provider {
	return &Provider{
		store: store,
		log:   resolveLogger(logger),
		done:  make(chan struct{}),
	}
}

// Start launches the initial check in the background. Later calls are no-ops.
func (p *Provider) Start(ctx context.Context) {
	p.once.Do(func() {
		go func() {
			defer p.finish()
			p.Check(ctx)
		}()
	})
}

// Check validates the stored session. A valid session gets its profile
// refreshed; an unreadable one is cleared and treated as logged out.
func (p *Provider) Check(ctx context.Context) {
	if _, err := p.store.CurrentToken(ctx); err != nil {
		p.log.Error(err, "session storage unreadable, clearing")
		if err := p.store.Clear(ctx); err != nil {
			p.log.Error(err, "clearing session failed")
		}
		return
	}

	if !p.store.IsValid(ctx) {
		p.log.V(1).Info("no valid session at startup")
		return
	}

	if _, err := p.store.RefreshProfile(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.log.V(1).Info("profile refresh at startup failed", "err", err.Error())
	}
}

func (p *Provider) finish() {
	p.mu.Lock()
	p.ready = true
	p.mu.Unlock()
	close(p.done)
}

// Ready reports whether the initial check completed.
func (p *Provider) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// Done is closed when the initial check completed.
func (p *Provider) Done() <-chan struct{} {
	return p.done
}

// Logout ends the session.
func (p *Provider) Logout(ctx context.Context) error {
	return p.store.Clear(ctx)
}
