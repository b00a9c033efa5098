// Package lock provides short-lived advisory locks keyed by string.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"tripfare/pkg/clock"
)

var ErrNotAcquired = errors.New("lock is held by another owner")

// Unlock releases a lock. Releasing a lock that has already expired and been taken by
// another owner is a no-op.
type Unlock func(ctx context.Context) error

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}

// LocalLocker is an in-process Locker for single-instance deployments and tests.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localLease
	clock clock.Clock
}

type localLease struct {
	token     string
	expiresAt time.Time
}

func NewLocalLocker(c clock.Clock) *LocalLocker {
	if c == nil {
		c = clock.NewRealClock()
	}
	return &LocalLocker{held: make(map[string]localLease), clock: c}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (Unlock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if lease, ok := l.held[key]; ok && now.Before(lease.expiresAt) {
		return nil, ErrNotAcquired
	}

	token := uuid.NewString()
	l.held[key] = localLease{token: token, expiresAt: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if lease, ok := l.held[key]; ok && lease.token == token {
			delete(l.held, key)
		}
		return nil
	}, nil
}
