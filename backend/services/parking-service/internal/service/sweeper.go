package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically expires lapsed sessions.
type Sweeper struct {
	svc      *ParkingService
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper builds sweeper running every interval.
func NewSweeper(svc *ParkingService, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{svc: svc, interval: interval, logger: logger}
}

// Run sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.svc.ExpireLapsed(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("expiry sweep failed", zap.Error(err))
				}
				continue
			}
			if n > 0 {
				s.logger.Info("expired lapsed sessions", zap.Int("count", n))
			}
		}
	}
}
