package tabular

import (
	"context"
	"sync"
)

// Locker serializes writers per table name. Unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, table string) (unlock func(), err error)
}

// LocalLocker is an in-process mutex per table name.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocalLocker returns a Locker valid within one process.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

// Lock blocks until the table is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, table string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[table]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[table] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}
