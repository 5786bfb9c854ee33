package orchestrator

import (
	"sync"

	"zhtp-network/internal/xerrors"
)

// Provider is a typed, explicitly-lifecycled accessor for one
// component instance. Unlike the teacher's package-level
// sync.Once/global-variable pattern, access before Init is a typed
// error rather than a zero-value or a silently-constructed fallback,
// and Teardown makes the provider unusable again rather than leaving
// a stale pointer live.
type Provider[T any] struct {
	mu   sync.RWMutex
	val  T
	set  bool
}

// NewProvider returns an uninitialized provider.
func NewProvider[T any]() *Provider[T] {
	return &Provider[T]{}
}

// Init sets the provider's value. Calling Init twice without an
// intervening Teardown is rejected: a live provider must not be
// silently replaced out from under existing holders of Get's result.
func (p *Provider[T]) Init(v T) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.set {
		return xerrors.New(xerrors.KindState, "orchestrator.Provider.Init", xerrors.ErrInvalidLength)
	}
	p.val = v
	p.set = true
	return nil
}

// Get returns the provider's value, failing if Init was never called
// or Teardown has since run.
func (p *Provider[T]) Get() (T, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.set {
		var zero T
		return zero, xerrors.New(xerrors.KindState, "orchestrator.Provider.Get", xerrors.ErrInvalidLength)
	}
	return p.val, nil
}

// Teardown clears the provider's value, returning it to the
// uninitialized state so a subsequent Init is valid again.
func (p *Provider[T]) Teardown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	var zero T
	p.val = zero
	p.set = false
}

// Ready reports whether Init has been called without a subsequent
// Teardown.
func (p *Provider[T]) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.set
}
