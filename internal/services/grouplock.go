package services

import (
	"context"
	"sync"
)

// GroupLocker serializes mutations per group id. Different groups never share a lock.
type GroupLocker struct {
	mu    sync.Mutex
	locks map[string]*groupLock
}

type groupLock struct {
	sem  chan struct{}
	refs int
}

// NewGroupLocker returns an empty keyed lock.
func NewGroupLocker() *GroupLocker {
	return &GroupLocker{locks: make(map[string]*groupLock)}
}

// Lock blocks until the group's lock is held or ctx is done. The returned
// function releases the lock and must be called exactly once.
func (l *GroupLocker) Lock(ctx context.Context, groupID string) (func(), error) {
	l.mu.Lock()
	gl, ok := l.locks[groupID]
	if !ok {
		gl = &groupLock{sem: make(chan struct{}, 1)}
		l.locks[groupID] = gl
	}
	gl.refs++
	l.mu.Unlock()

	select {
	case gl.sem <- struct{}{}:
		return func() {
			<-gl.sem
			l.release(groupID, gl)
		}, nil
	case <-ctx.Done():
		l.release(groupID, gl)
		return nil, ctx.Err()
	}
}

func (l *GroupLocker) release(groupID string, gl *groupLock) {
	l.mu.Lock()
	gl.refs--
	if gl.refs == 0 {
		delete(l.locks, groupID)
	}
	l.mu.Unlock()
}

// size is the number of groups with a held or awaited lock.
func (l *GroupLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
