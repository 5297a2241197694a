package memory

import (
	"context"
	"sync"
	"time"

	"hotelier/internal/app/locks"
)

// Locker serializes work per key inside one process. Each key owns a
// one-slot channel; waiting honors ctx and the optional Wait budget.
type Locker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	Wait  time.Duration
}

func NewLocker(wait time.Duration) *Locker {
	return &Locker{slots: make(map[string]chan struct{}), Wait: wait}
}

func (l *Locker) Acquire(ctx context.Context, key string) (locks.Release, error) {
	slot := l.slot(key)
	if l.Wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Wait)
		defer cancel()
	}
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, locks.ErrBusy
		}
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-slot })
	}, nil
}

func (l *Locker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

var _ locks.Locker = (*Locker)(nil)
