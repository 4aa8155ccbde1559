// Package lock serializes read-modify-write sequences on a single cart or
// wishlist line.
package lock

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Mode selects the Locker implementation.
type Mode string

const (
	// ModeNone performs no locking. Concurrent adds for the same line may
	// race as check-then-act.
	ModeNone Mode = "none"
	// ModeLocal serializes within one process.
	ModeLocal Mode = "local"
	// ModeRedis serializes across processes sharing a Redis instance.
	ModeRedis Mode = "redis"
)

// ParseMode validates a textual mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNone, ModeLocal, ModeRedis:
		return m, nil
	default:
		return "", fmt.Errorf("unknown lock mode %q", s)
	}
}

// Locker acquires a named lock. The returned unlock func must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Key builds the lock key for one (user, product) line.
func Key(kind, userID, productID string) string {
	return kind + ":" + userID + ":" + productID
}

// Noop is a Locker that never blocks.
type Noop struct{}

var (
	_ Locker = Noop{}
	_ Locker = (*Local)(nil)
	_ Locker = (*Redis)(nil)
)

// Lock implements Locker.
func (Noop) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// Local is an in-process keyed mutex. Entries are dropped once no holder or
// waiter remains, so the map does not grow with the number of lines seen.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewLocal creates a Local locker.
func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

// Lock implements Locker. It gives up when ctx is done.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// size reports the number of tracked keys.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
