package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/climbup/booking-platform/internal/consultants"
	"github.com/climbup/booking-platform/internal/rules"
	"github.com/climbup/booking-platform/internal/scheduling"
	"github.com/climbup/booking-platform/pkg/logging"
)

var tracer = otel.Tracer("climbup.internal.booking")

// ErrConsultantNotFound is returned when the requested consultant does not
// exist or is inactive.
var ErrConsultantNotFound = errors.New("booking: consultant not found")

type holdCreator interface {
	CreateHold(ctx context.Context, consultantID, clientID uuid.UUID, iv scheduling.Interval) (*scheduling.Hold, error)
}

type consultantGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*consultants.Consultant, error)
}

type bookingRuleSource interface {
	BookingRule(ctx context.Context) (rules.BookingRule, error)
}

type pricer interface {
	Price(ctx context.Context, baseRate float64, iv scheduling.Interval, consultant consultants.Consultant) (float64, error)
}

type preferenceChecker interface {
	MatchesPreferences(ctx context.Context, c consultants.Consultant, clientPreferences []string) bool
}

// Quote is the result of a successful booking attempt: a held slot and the
// price the client will pay if the hold converts.
type Quote struct {
	Hold   *scheduling.Hold `json:"hold"`
	Amount float64          `json:"amount"`
}

// Service runs the full booking pipeline: policy validation, slot hold,
// price quote.
type Service struct {
	holds       holdCreator
	consultants consultantGetter
	rules       bookingRuleSource
	engine      pricer
	preferences preferenceChecker
	logger      *logging.Logger
	now         func() time.Time
}

func NewService(holds holdCreator, directory consultantGetter, ruleSrc bookingRuleSource, engine pricer, prefs preferenceChecker, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		holds:       holds,
		consultants: directory,
		rules:       ruleSrc,
		engine:      engine,
		preferences: prefs,
		logger:      logger,
		now:         time.Now,
	}
}

// Book validates the request, takes a hold on the slot, and quotes the
// price. A *Rejection error means policy refused the request; the slot was
// not touched. scheduling.ErrConflict means the slot is taken.
func (s *Service) Book(ctx context.Context, req Request) (*Quote, error) {
	ctx, span := tracer.Start(ctx, "booking.Book")
	defer span.End()
	span.SetAttributes(
		attribute.String("consultant_id", req.ConsultantID.String()),
		attribute.String("client_id", req.ClientID.String()),
	)

	consultant, err := s.consultants.GetByID(ctx, req.ConsultantID)
	if err != nil {
		return nil, fmt.Errorf("booking: load consultant: %w", err)
	}
	if consultant == nil || !consultant.Active {
		return nil, ErrConsultantNotFound
	}

	if len(req.Preferences) > 0 && s.preferences != nil {
		if !s.preferences.MatchesPreferences(ctx, *consultant, req.Preferences) {
			rej := &Rejection{
				Code:    RejectPreferences,
				Message: "consultant does not meet the client's preference threshold",
			}
			s.logger.Info("booking rejected",
				"consultant_id", req.ConsultantID,
				"code", string(rej.Code),
			)
			return nil, rej
		}
	}

	rule := s.bookingRule(ctx)
	if rej := Validate(req, *consultant, rule, s.now()); rej != nil {
		s.logger.Info("booking rejected",
			"consultant_id", req.ConsultantID,
			"code", string(rej.Code),
		)
		return nil, rej
	}

	hold, err := s.holds.CreateHold(ctx, req.ConsultantID, req.ClientID, req.Interval)
	if err != nil {
		return nil, err
	}

	amount, err := s.engine.Price(ctx, consultant.HourlyRate, req.Interval, *consultant)
	if err != nil {
		return nil, fmt.Errorf("booking: price quote: %w", err)
	}

	s.logger.Info("booking quoted",
		"hold_id", hold.ID,
		"consultant_id", req.ConsultantID,
		"amount", amount,
	)
	return &Quote{Hold: hold, Amount: amount}, nil
}

// bookingRule loads the active booking rule, falling back to defaults when
// the rule source is unavailable.
func (s *Service) bookingRule(ctx context.Context) rules.BookingRule {
	rule, err := s.rules.BookingRule(ctx)
	if err != nil {
		s.logger.Warn("booking rule unavailable, using defaults", "error", err)
		return rules.DefaultBookingRule()
	}
	return rule
}
