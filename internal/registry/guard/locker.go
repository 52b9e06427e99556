package guard

import (
	"context"
	"sync"

	"tasjeel/pkg/platform/sentinel"
)

// Locker hands out non-blocking advisory locks keyed on
// (domain, side, normalized identity). A held key means a concurrent writer
// is between its duplicate check and its insert for the same identity.
type Locker interface {
	// Acquire takes the key or fails immediately with
	// sentinel.ErrLockUnavailable (wrapped) when it is held. The returned
	// release func is safe to call exactly once and must be called on every
	// exit path.
	Acquire(ctx context.Context, key string) (func(), error)
}

// InMemoryLocker serializes identity writes within a single process. It backs
// tests and single-instance deployments; multi-instance deployments need the
// Redis locker.
type InMemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{held: make(map[string]struct{})}
}

func (l *InMemoryLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, sentinel.ErrLockUnavailable
	}
	l.held[key] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}
	return release, nil
}
