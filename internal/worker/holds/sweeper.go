package holdsworker

import (
	"context"
	"time"

	"github.com/climbup/booking-platform/internal/observability/metrics"
	"github.com/climbup/booking-platform/internal/scheduling"
	"github.com/climbup/booking-platform/pkg/logging"
)

type overdueStore interface {
	ExpireOverdueHolds(ctx context.Context, now time.Time, limit int) ([]scheduling.Hold, error)
}

type holdIndex interface {
	Release(ctx context.Context, hold *scheduling.Hold)
}

// Sweeper expires overdue slot holds in the background. Lazy validation
// already keeps reads correct; the sweeper just reclaims rows and side-index
// entries sooner.
type Sweeper struct {
	store     overdueStore
	index     holdIndex
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewSweeper(store overdueStore, index holdIndex, m *metrics.BookingMetrics, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		store:     store,
		index:     index,
		metrics:   m,
		logger:    logger,
		interval:  30 * time.Second,
		batchSize: 100,
		now:       time.Now,
	}
}

func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	if d > 0 {
		s.interval = d
	}
	return s
}

func (s *Sweeper) WithBatchSize(n int) *Sweeper {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if s.store == nil {
		return
	}
	expired, err := s.store.ExpireOverdueHolds(ctx, s.now(), s.batchSize)
	if err != nil {
		s.logger.Error("hold sweep failed", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}
	for i := range expired {
		if s.index != nil {
			s.index.Release(ctx, &expired[i])
		}
		s.metrics.ObserveHoldExpired("sweep")
	}
	s.logger.Info("expired overdue holds", "count", len(expired))
}
