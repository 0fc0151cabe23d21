package executor

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/aryankumar/mermaidfleet/internal/util"
)

// Gate is a bounded admission gate. A permit is held for the whole lifetime of one
// renderer process, so Active never exceeds Capacity.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int

	active   atomic.Int64
	peak     atomic.Int64
	admitted atomic.Int64
}

// NewGate creates a gate with the given capacity
func NewGate(capacity int) (*Gate, error) {
	if capacity <= 0 {
		return nil, util.NewValidationError("capacity", capacity, "must be positive")
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}, nil
}

// Acquire blocks until a permit is free or ctx is done.
// It fails without admitting when ctx is already done.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	g.admitted.Add(1)
	current := g.active.Add(1)
	for {
		peak := g.peak.Load()
		if current <= peak || g.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	return nil
}

// Release returns a permit
func (g *Gate) Release() {
	g.active.Add(-1)
	g.sem.Release(1)
}

// Capacity returns the maximum number of concurrent permits
func (g *Gate) Capacity() int {
	return g.capacity
}

// Active returns the number of permits currently held
func (g *Gate) Active() int {
	return int(g.active.Load())
}

// Peak returns the highest number of permits held at once
func (g *Gate) Peak() int {
	return int(g.peak.Load())
}

// Admitted returns the total number of permits granted
func (g *Gate) Admitted() int {
	return int(g.admitted.Load())
}
