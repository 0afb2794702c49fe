package pricing

import (
	"context"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/climbup/booking-platform/internal/consultants"
	"github.com/climbup/booking-platform/internal/observability/metrics"
	"github.com/climbup/booking-platform/internal/rules"
	"github.com/climbup/booking-platform/internal/scheduling"
	"github.com/climbup/booking-platform/pkg/logging"
)

var pricingTracer = otel.Tracer("climbup.internal.pricing")

// ExperiencePerYear is the per-year experience uplift on the final price.
const ExperiencePerYear = 0.1

type peakRuleSource interface {
	PeakHourRules(ctx context.Context, day string) ([]rules.PeakHourRule, error)
}

// Engine computes slot quotes from base rate, peak windows, and consultant
// experience.
type Engine struct {
	rules   peakRuleSource
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewEngine constructs a pricing engine.
func NewEngine(ruleSrc peakRuleSource, m *metrics.BookingMetrics, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{rules: ruleSrc, metrics: m, logger: logger}
}

// Price quotes the interval: baseRate x fractional hours x peak multiplier
// x experience multiplier, rounded half-to-even to cents. The peak
// multiplier comes from the highest-multiplier active rule whose window
// contains the interval start; a failed rule lookup degrades to 1.0 because
// pricing must never block a reservation.
func (e *Engine) Price(ctx context.Context, baseRate float64, iv scheduling.Interval, consultant consultants.Consultant) (float64, error) {
	ctx, span := pricingTracer.Start(ctx, "pricing.price")
	defer span.End()
	span.SetAttributes(attribute.String("climbup.consultant_id", consultant.ID.String()))

	if err := iv.Validate(); err != nil {
		return 0, err
	}

	hours := iv.Hours()
	peak := e.peakMultiplier(ctx, iv)
	experience := 1.0 + ExperiencePerYear*float64(consultant.YearsExperience)

	return Round2(baseRate * hours * peak * experience), nil
}

func (e *Engine) peakMultiplier(ctx context.Context, iv scheduling.Interval) float64 {
	if e.rules == nil {
		return rules.DefaultPeakMultiplier
	}
	peakRules, err := e.rules.PeakHourRules(ctx, rules.DayKey(iv.Start))
	if err != nil {
		e.metrics.ObserveRuleFallback("peak_hours")
		e.logger.Warn("peak hour rule lookup degraded for pricing", "error", err)
		return rules.DefaultPeakMultiplier
	}
	return rules.HighestMultiplier(peakRules, iv.Start)
}

// Round2 rounds to two decimal places using round-half-to-even.
func Round2(amount float64) float64 {
	return math.RoundToEven(amount*100) / 100
}
