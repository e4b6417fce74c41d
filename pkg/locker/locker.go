// Package locker serializes mutations of a single enrollment.
package locker

import (
	"context"
	"errors"
	"sync"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out exclusive locks by key. Lock blocks until the lock is
// held or ctx is done; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Memory is an in-process keyed mutex.
type Memory struct {
	mu   sync.Mutex
	keys map[string]*entry
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[string]*entry)}
}

func (m *Memory) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()

	e, ok := m.keys[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.keys[key] = e
	}

	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e)

		return nil, ctx.Err()
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			<-e.ch
			m.release(key, e)
		})
	}, nil
}

func (m *Memory) release(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(m.keys, key)
	}
}
