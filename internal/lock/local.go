package lock

import (
	"context"
	"sync"
)

// Local is an in-process keyed mutex.  It is enough when a single
// server instance owns the database; use Redis for several instances.
type Local struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  chan struct{} // capacity 1; holding a token means holding the key
	refs int           // waiters + holder, entry is dropped at zero
}

// NewLocal returns an empty Local locker.
func NewLocal() *Local {
	return &Local{entries: make(map[string]*entry)}
}

// Acquire implements Locker.
func (l *Local) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := l.lockOne(ctx, k); err != nil {
			l.unlockAll(held)
			return nil, err
		}
		held = append(held, k)
	}
	var once sync.Once
	return func() { once.Do(func() { l.unlockAll(held) }) }, nil
}

func (l *Local) lockOne(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.release(key, e, false)
		return ErrLockTimeout
	}
}

func (l *Local) unlockAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		e := l.entries[keys[i]]
		l.mu.Unlock()
		if e != nil {
			l.release(keys[i], e, true)
		}
	}
}

func (l *Local) release(key string, e *entry, holding bool) {
	if holding {
		<-e.sem
	}
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}
