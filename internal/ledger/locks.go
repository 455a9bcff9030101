package ledger

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// GroupLocks serializes ledger mutations per group. Different groups never
// contend with each other.
type GroupLocks struct {
	mu      sync.Mutex
	locks   map[string]*groupLock
	timeout time.Duration
}

type groupLock struct {
	sem     *semaphore.Weighted
	waiters int
}

// NewGroupLocks creates an empty lock table.
func NewGroupLocks() *GroupLocks {
	return NewGroupLocksWithTimeout(0)
}

// NewGroupLocksWithTimeout creates a lock table whose Lock gives up after
// timeout with context.DeadlineExceeded. Zero means wait for ctx only.
func NewGroupLocksWithTimeout(timeout time.Duration) *GroupLocks {
	return &GroupLocks{locks: make(map[string]*groupLock), timeout: timeout}
}

// Lock blocks until the caller owns the group or ctx is done.
// The returned func releases the group and may be called more than once.
func (g *GroupLocks) Lock(ctx context.Context, groupID string) (func(), error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.mu.Lock()
	lock, ok := g.locks[groupID]
	if !ok {
		lock = &groupLock{sem: semaphore.NewWeighted(1)}
		g.locks[groupID] = lock
	}
	lock.waiters++
	g.mu.Unlock()

	if err := lock.sem.Acquire(ctx, 1); err != nil {
		g.release(groupID, lock, false)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() { g.release(groupID, lock, true) })
	}, nil
}

func (g *GroupLocks) release(groupID string, lock *groupLock, held bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if held {
		lock.sem.Release(1)
	}
	lock.waiters--
	if lock.waiters == 0 {
		delete(g.locks, groupID)
	}
}

// size reports the number of groups with a holder or waiter.
func (g *GroupLocks) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}
