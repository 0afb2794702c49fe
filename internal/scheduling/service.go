package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/climbup/booking-platform/internal/consultants"
	"github.com/climbup/booking-platform/internal/observability/metrics"
	"github.com/climbup/booking-platform/internal/rules"
	"github.com/climbup/booking-platform/pkg/logging"
)

var schedulingTracer = otel.Tracer("climbup.internal.scheduling")

// PreferredPeakHoldMultiplier extends the hold duration when the slot falls
// in a peak window and the consultant is preferred. Named so product can
// promote it to a configurable rule later.
const PreferredPeakHoldMultiplier = 1.5

// slotStepMinutes is the granularity of the available-slot walk.
const slotStepMinutes = 15

type holdStore interface {
	CreateHold(ctx context.Context, hold *Hold) error
	GetHold(ctx context.Context, id uuid.UUID) (*Hold, error)
	ExpireHold(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	ConvertHold(ctx context.Context, holdID uuid.UUID, now time.Time) (*Appointment, error)
	CountOverlaps(ctx context.Context, q Querier, consultantID uuid.UUID, iv Interval, now time.Time) (int, error)
}

type consultantDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*consultants.Consultant, error)
}

type holdRuleSource interface {
	HoldRule(ctx context.Context) (rules.HoldRule, error)
	PeakHourRules(ctx context.Context, day string) ([]rules.PeakHourRule, error)
}

// HoldService owns the slot-hold lifecycle: creation, validation,
// conversion, and the availability read path.
type HoldService struct {
	store        holdStore
	consultants  consultantDirectory
	rules        holdRuleSource
	index        *SideIndex
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
	baseDuration time.Duration
	now          func() time.Time
}

// NewHoldService constructs the hold manager.
func NewHoldService(store holdStore, directory consultantDirectory, ruleSrc holdRuleSource, index *SideIndex, m *metrics.BookingMetrics, logger *logging.Logger) *HoldService {
	if store == nil {
		panic("scheduling: hold store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HoldService{
		store:        store,
		consultants:  directory,
		rules:        ruleSrc,
		index:        index,
		metrics:      m,
		logger:       logger,
		baseDuration: rules.DefaultHoldDuration,
		now:          time.Now,
	}
}

// WithBaseDuration overrides the fallback hold duration used when no
// hold-duration rule is configured.
func (s *HoldService) WithBaseDuration(d time.Duration) *HoldService {
	if d > 0 {
		s.baseDuration = d
	}
	return s
}

// CheckAvailability reports whether the interval is free of active holds and
// pending/confirmed appointments. A pure query; store failures propagate and
// are never interpreted as "available".
func (s *HoldService) CheckAvailability(ctx context.Context, consultantID uuid.UUID, iv Interval) (bool, error) {
	if err := iv.Validate(); err != nil {
		return false, err
	}
	count, err := s.store.CountOverlaps(ctx, nil, consultantID, iv, s.now())
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// CreateHold reserves the interval exclusively for the client. The
// availability check and the insert are one atomic unit in the store;
// ErrConflict is the expected outcome when the interval is taken.
func (s *HoldService) CreateHold(ctx context.Context, consultantID, clientID uuid.UUID, iv Interval) (*Hold, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.create_hold")
	defer span.End()
	span.SetAttributes(attribute.String("climbup.consultant_id", consultantID.String()))

	if err := iv.Validate(); err != nil {
		return nil, err
	}

	started := s.now()
	duration := s.holdDuration(ctx, consultantID, iv.Start)

	hold := &Hold{
		ID:           uuid.New(),
		ConsultantID: consultantID,
		ClientID:     clientID,
		Interval:     iv,
		Status:       HoldActive,
		CreatedAt:    started,
		ExpiresAt:    started.Add(duration),
	}

	if err := s.store.CreateHold(ctx, hold); err != nil {
		if errors.Is(err, ErrConflict) {
			s.metrics.ObserveHoldConflict()
			return nil, err
		}
		span.RecordError(err)
		return nil, err
	}

	s.index.Register(ctx, hold)
	s.metrics.ObserveHoldCreated(s.now().Sub(started).Seconds())
	s.logger.Info("slot hold created",
		"hold_id", hold.ID,
		"consultant_id", consultantID,
		"client_id", clientID,
		"expires_at", hold.ExpiresAt,
	)
	return hold, nil
}

// holdDuration computes how long the hold lives: the active hold-duration
// rule's base, extended for preferred consultants in peak windows. Every
// rule failure degrades to a safe default instead of blocking the hold.
func (s *HoldService) holdDuration(ctx context.Context, consultantID uuid.UUID, start time.Time) time.Duration {
	base := s.baseDuration
	if s.rules != nil {
		rule, err := s.rules.HoldRule(ctx)
		if err != nil {
			s.metrics.ObserveRuleFallback("hold_duration")
			s.logger.Warn("hold duration rule lookup degraded", "error", err)
		} else {
			base = rule.Duration()
		}
	}

	multiplier := rules.DefaultPeakMultiplier
	if s.rules != nil {
		peakRules, err := s.rules.PeakHourRules(ctx, rules.DayKey(start))
		if err != nil {
			s.metrics.ObserveRuleFallback("peak_hours")
			s.logger.Warn("peak hour rule lookup degraded", "error", err)
		} else {
			multiplier = rules.HighestMultiplier(peakRules, start)
		}
	}
	if multiplier <= 1.0 {
		return base
	}

	consultant, err := s.lookupConsultant(ctx, consultantID)
	if err != nil {
		s.logger.Warn("consultant lookup degraded for hold duration", "error", err, "consultant_id", consultantID)
		return base
	}
	if consultant != nil && consultant.Preferred {
		return time.Duration(float64(base) * PreferredPeakHoldMultiplier)
	}
	return base
}

func (s *HoldService) lookupConsultant(ctx context.Context, id uuid.UUID) (*consultants.Consultant, error) {
	if s.consultants == nil {
		return nil, nil
	}
	return s.consultants.GetByID(ctx, id)
}

// ValidateHold reports whether the hold is still active, lazily expiring an
// overdue one. Idempotent: the transition is a conditional update, so
// concurrent validators observe the same outcome.
func (s *HoldService) ValidateHold(ctx context.Context, holdID uuid.UUID) (bool, error) {
	hold, err := s.store.GetHold(ctx, holdID)
	if err != nil {
		return false, err
	}
	if hold.Status != HoldActive {
		return false, nil
	}
	now := s.now()
	if !hold.Overdue(now) {
		return true, nil
	}

	won, err := s.store.ExpireHold(ctx, holdID, now)
	if err != nil {
		return false, err
	}
	if won {
		s.index.Release(ctx, hold)
		s.metrics.ObserveHoldExpired("lazy")
		s.logger.Info("slot hold lazily expired", "hold_id", holdID)
	}
	return false, nil
}

// ConvertHold turns an active hold into a confirmed appointment in one
// atomic unit. Fails with ErrHoldExpired or ErrHoldInvalidState; both are
// recoverable by requesting a fresh hold.
func (s *HoldService) ConvertHold(ctx context.Context, holdID uuid.UUID) (*Appointment, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.convert_hold")
	defer span.End()
	span.SetAttributes(attribute.String("climbup.hold_id", holdID.String()))

	appt, err := s.store.ConvertHold(ctx, holdID, s.now())
	if err != nil {
		if errors.Is(err, ErrHoldExpired) {
			s.metrics.ObserveHoldExpired("lazy")
		}
		return nil, err
	}

	s.index.Release(ctx, &Hold{ID: holdID, ConsultantID: appt.ConsultantID})
	s.metrics.ObserveHoldConverted()
	s.logger.Info("slot hold converted",
		"hold_id", holdID,
		"appointment_id", appt.ID,
		"consultant_id", appt.ConsultantID,
	)
	return appt, nil
}
