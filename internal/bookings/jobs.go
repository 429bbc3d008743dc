package bookings

import (
	"context"
	"time"

	"shipline/pkg/logger"
)

// ExpirySweeper periodically cancels pending bookings whose payment window
// lapsed, independent of whether the booking client is still around.
type ExpirySweeper struct {
	service  Service
	interval time.Duration
	done     chan struct{}
}

func NewExpirySweeper(service Service, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		service:  service,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (s *ExpirySweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *ExpirySweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			expired, err := s.service.ExpireOverdue(ctx)
			if err != nil {
				logger.GetDefault().ErrorWithContext(ctx, "booking expiry sweep failed", err, nil)
				continue
			}
			logger.GetDefault().LogSweep(ctx, "booking_expiry", expired)
		}
	}
}

func (s *ExpirySweeper) Stop() {
	close(s.done)
}
