package server

import (
	"context"
	"sync/atomic"
)

// Pool bounds the number of searches and perft runs executing at once. Each request holds
// one slot for its whole computation; requests beyond the limit wait for a slot or their
// context, whichever comes first.
type Pool struct {
	slots  chan struct{}
	queued atomic.Int64
	active atomic.Int64
	total  atomic.Int64
}

// PoolStats is a snapshot of a Pool.
type PoolStats struct {
	Active int64 `json:"active"`
	Queued int64 `json:"queued"`
	Total  int64 `json:"total"`
	Max    int   `json:"max"`
}

// NewPool returns a pool with size slots (at least one).
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Acquire blocks until a slot is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) error {
	p.queued.Add(1)
	defer p.queued.Add(-1)

	select {
	case p.slots <- struct{}{}:
		p.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking and reports whether it got one.
func (p *Pool) TryAcquire() bool {
	select {
	case p.slots <- struct{}{}:
		p.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (p *Pool) Release() {
	p.active.Add(-1)
	p.total.Add(1)
	<-p.slots
}

// Stats returns the current counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Active: p.active.Load(),
		Queued: p.queued.Load(),
		Total:  p.total.Load(),
		Max:    cap(p.slots),
	}
}
