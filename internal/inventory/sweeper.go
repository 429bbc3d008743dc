package inventory

import (
	"context"
	"time"

	"shipline/pkg/logger"
)

// Sweeper periodically reclaims expired holds so an abandoned checkout never
// locks seats for longer than the hold TTL. It runs independently of any
// customer flow and keeps going past individual anomalies.
type Sweeper struct {
	store    Store
	interval time.Duration
	done     chan struct{}
}

func NewSweeper(store Store, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (sw *Sweeper) Start(ctx context.Context) {
	go sw.run(ctx)
}

// Stop terminates the sweep loop.
func (sw *Sweeper) Stop() {
	close(sw.done)
}

func (sw *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sw.sweep(ctx)
		case <-sw.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (sw *Sweeper) sweep(ctx context.Context) {
	reclaimed, err := sw.store.SweepExpired(ctx, time.Now())
	if err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "seat hold sweep failed", err, nil)
		return
	}
	logger.GetDefault().LogSweep(ctx, "seat_holds", reclaimed)
}
