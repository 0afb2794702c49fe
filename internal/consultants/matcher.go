package consultants

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/climbup/booking-platform/internal/rules"
	"github.com/climbup/booking-platform/pkg/logging"
)

var matcherTracer = otel.Tracer("climbup.internal.consultants")

type ruleSource interface {
	PreferenceRules(ctx context.Context) ([]rules.PreferenceRule, error)
}

// Matcher filters and ranks consultants for the browse and booking paths.
type Matcher struct {
	repo   *Repository
	rules  ruleSource
	logger *logging.Logger
}

// NewMatcher constructs a matcher.
func NewMatcher(repo *Repository, ruleSrc ruleSource, logger *logging.Logger) *Matcher {
	if repo == nil {
		panic("consultants: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Matcher{repo: repo, rules: ruleSrc, logger: logger}
}

// Match returns active consultants for the specialization, optionally
// restricted to preferred ones. This is the pre-booking browse path.
func (m *Matcher) Match(ctx context.Context, specialization string, preferredOnly bool) ([]Consultant, error) {
	ctx, span := matcherTracer.Start(ctx, "consultants.match")
	defer span.End()
	span.SetAttributes(
		attribute.String("climbup.specialization", specialization),
		attribute.Bool("climbup.preferred_only", preferredOnly),
	)

	return m.repo.Match(ctx, specialization, preferredOnly)
}

// MatchesPreferences reports whether the consultant satisfies the client's
// weighted preference rules. When the rule source is unavailable the check
// degrades to a pass: preference filtering must never block a booking.
func (m *Matcher) MatchesPreferences(ctx context.Context, c Consultant, clientPreferences []string) bool {
	if len(clientPreferences) == 0 {
		return true
	}
	prefRules, err := m.rules.PreferenceRules(ctx)
	if err != nil {
		m.logger.Warn("preference rule lookup degraded", "error", err, "consultant_id", c.ID)
		return true
	}
	return Qualifies(c, prefRules)
}
