package payments

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/climbup/booking-platform/internal/scheduling"
	"github.com/climbup/booking-platform/pkg/logging"
)

var tracer = otel.Tracer("climbup.internal.payments")

// ErrAmountMismatch is returned when the confirmed amount does not equal
// the quoted intent amount.
var ErrAmountMismatch = errors.New("payments: amount mismatch")

// amountEpsilon tolerates float drift between a quoted and a confirmed
// amount; anything under a thousandth of a cent is equal.
const amountEpsilon = 1e-6

type intentStore interface {
	GetIntent(ctx context.Context, paymentID uuid.UUID) (*Intent, error)
	DeleteIntent(ctx context.Context, paymentID uuid.UUID) error
}

type holdConverter interface {
	ConvertHold(ctx context.Context, holdID uuid.UUID) (*scheduling.Appointment, error)
}

// Service confirms payments against stored intents and converts the
// referenced hold into an appointment. Gateway interaction happens
// upstream; this service only consumes its outcome.
type Service struct {
	intents intentStore
	holds   holdConverter
	logger  *logging.Logger
}

func NewService(intents intentStore, holds holdConverter, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{intents: intents, holds: holds, logger: logger}
}

// Confirm verifies the paid amount against the intent and converts the
// hold. ErrIntentNotFound means the intent expired or never existed;
// ErrAmountMismatch means the payment does not cover the quote. Hold
// conversion errors pass through unchanged so callers can branch on the
// scheduling sentinels.
func (s *Service) Confirm(ctx context.Context, paymentID uuid.UUID, amount float64) (*scheduling.Appointment, error) {
	ctx, span := tracer.Start(ctx, "payments.Confirm")
	defer span.End()
	span.SetAttributes(attribute.String("payment_id", paymentID.String()))

	intent, err := s.intents.GetIntent(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if math.Abs(intent.Amount-amount) > amountEpsilon {
		s.logger.Warn("payment amount mismatch",
			"payment_id", paymentID,
			"expected", intent.Amount,
			"received", amount,
		)
		return nil, fmt.Errorf("%w: expected %.2f, got %.2f", ErrAmountMismatch, intent.Amount, amount)
	}

	appt, err := s.holds.ConvertHold(ctx, intent.HoldID)
	if err != nil {
		return nil, err
	}

	if err := s.intents.DeleteIntent(ctx, paymentID); err != nil {
		// The hold already converted; a leftover intent only wastes a key
		// until its TTL.
		s.logger.Warn("failed to delete consumed intent", "payment_id", paymentID, "error", err)
	}

	s.logger.Info("payment confirmed",
		"payment_id", paymentID,
		"hold_id", intent.HoldID,
		"appointment_id", appt.ID,
	)
	return appt, nil
}
