package crawler

import (
	"context"
	"sync"
)

// barrier tracks a dynamically growing and shrinking number of pending work units.
//
// The barrier starts with one pending unit which belongs to the caller that creates it. Every unit must be registered before it is scheduled,
// and a unit that spawns children must register all of them before it arrives itself. Otherwise, the pending count may drop to zero while a
// child is about to start, and the waiters would be released too early. Both Register and Arrive panic once the barrier is drained.
type barrier struct {
	mu      sync.Mutex
	pending int
	done    chan struct{}
}

// Register adds a pending unit.
func (b *barrier) Register() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == 0 {
		panic(ErrBarrierDrained)
	}

	b.pending++
}

// Arrive marks a pending unit as completed. The waiters are released when there is no more pending unit.
func (b *barrier) Arrive() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == 0 {
		panic(ErrBarrierDrained)
	}

	b.pending--

	if b.pending == 0 {
		close(b.done)
	}
}

// Pending returns the number of units that have been registered but have not arrived yet.
func (b *barrier) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.pending
}

// Await blocks until all the units arrive or the context is done.
func (b *barrier) Await(ctx context.Context) error {
	select {
	case <-b.done:
		return nil

	default:
	}

	select {
	case <-b.done:
		return nil

	case <-ctx.Done():
		return ctx.Err()
	}
}

// newBarrier creates a new barrier with one pending unit for the caller.
func newBarrier() *barrier {
	return &barrier{
		pending: 1,
		done:    make(chan struct{}),
	}
}
