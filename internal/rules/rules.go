package rules

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Defaults applied when the rule source is unavailable or has no active entry.
// Rule lookup degradation must never block a reservation, so every consumer
// falls back to these rather than failing the request.
const (
	DefaultHoldDuration       = 600 * time.Second
	DefaultMinNoticeHours     = 24
	DefaultMaxDurationMinutes = 120
	DefaultPeakMultiplier     = 1.0
)

// PeakHourRule marks a weekly day/time window carrying a price multiplier.
// Windows are half-open: a moment matches when start <= t < end.
type PeakHourRule struct {
	Day        string  `bson:"day"`
	StartTime  string  `bson:"start_time"`
	EndTime    string  `bson:"end_time"`
	Multiplier float64 `bson:"multiplier"`
	Active     bool    `bson:"is_active"`
}

// HoldRule configures the base slot-hold duration.
type HoldRule struct {
	HoldDurationSeconds int  `bson:"hold_duration"`
	Active              bool `bson:"is_active"`
}

// Duration returns the configured hold duration.
func (r HoldRule) Duration() time.Duration {
	if r.HoldDurationSeconds <= 0 {
		return DefaultHoldDuration
	}
	return time.Duration(r.HoldDurationSeconds) * time.Second
}

// PreferenceRule weights one client preference dimension for consultant matching.
type PreferenceRule struct {
	PreferenceType string  `bson:"preference_type"`
	Value          string  `bson:"value"`
	Weight         float64 `bson:"weight"`
	Active         bool    `bson:"is_active"`
}

// BookingRule bounds booking notice and duration.
type BookingRule struct {
	MinNoticeHours     int  `bson:"min_notice_hours"`
	MaxDurationMinutes int  `bson:"max_duration_minutes"`
	Active             bool `bson:"is_active"`
}

// MinNotice returns the minimum advance notice for a booking.
func (r BookingRule) MinNotice() time.Duration {
	hours := r.MinNoticeHours
	if hours <= 0 {
		hours = DefaultMinNoticeHours
	}
	return time.Duration(hours) * time.Hour
}

// MaxDuration returns the longest allowed booking.
func (r BookingRule) MaxDuration() time.Duration {
	minutes := r.MaxDurationMinutes
	if minutes <= 0 {
		minutes = DefaultMaxDurationMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// DefaultBookingRule is used when no active booking rule is configured.
func DefaultBookingRule() BookingRule {
	return BookingRule{
		MinNoticeHours:     DefaultMinNoticeHours,
		MaxDurationMinutes: DefaultMaxDurationMinutes,
		Active:             true,
	}
}

// Source provides read-only typed access to the dynamic rule configuration.
// Implementations return only active entries.
type Source interface {
	PeakHourRules(ctx context.Context, day string) ([]PeakHourRule, error)
	HoldRule(ctx context.Context) (HoldRule, error)
	PreferenceRules(ctx context.Context) ([]PreferenceRule, error)
	BookingRule(ctx context.Context) (BookingRule, error)
}

// DayKey normalizes a weekday to the lowercase form rules are stored under.
func DayKey(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// Contains reports whether the rule's window covers the time-of-day of t.
func (r PeakHourRule) Contains(t time.Time) bool {
	start, err := parseClock(r.StartTime)
	if err != nil {
		return false
	}
	end, err := parseClock(r.EndTime)
	if err != nil {
		return false
	}
	moment := t.Hour()*60 + t.Minute()
	return moment >= start && moment < end
}

// HighestMultiplier scans rules whose window contains t and returns the
// largest multiplier, or the default 1.0 when none match. Picking the highest
// is the deterministic tie-break when windows overlap.
func HighestMultiplier(peakRules []PeakHourRule, t time.Time) float64 {
	multiplier := DefaultPeakMultiplier
	day := DayKey(t)
	for _, r := range peakRules {
		if !r.Active || !strings.EqualFold(r.Day, day) {
			continue
		}
		if r.Contains(t) && r.Multiplier > multiplier {
			multiplier = r.Multiplier
		}
	}
	return multiplier
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("rules: parse clock %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("rules: clock %q out of range", s)
	}
	return h*60 + m, nil
}
