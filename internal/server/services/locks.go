package services

import (
	"context"
	"sync"
)

// userLocks hands out one mutual-exclusion slot per username. Slots are
// created on demand and dropped once nobody holds or waits for them, so
// the map only ever holds names with an upload in flight. The zero value
// is ready to use.
type userLocks struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// lock blocks until name is free or ctx is done. On success the returned
// func releases the slot and must be called exactly once.
func (l *userLocks) lock(ctx context.Context, name string) (func(), error) {
	l.mu.Lock()
	if l.slots == nil {
		l.slots = make(map[string]*lockSlot)
	}
	s, ok := l.slots[name]
	if !ok {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[name] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return func() {
			<-s.ch
			l.release(name, s)
		}, nil
	case <-ctx.Done():
		l.release(name, s)
		return nil, ctx.Err()
	}
}

func (l *userLocks) release(name string, s *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, name)
	}
}
