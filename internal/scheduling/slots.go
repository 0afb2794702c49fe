package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/climbup/booking-platform/internal/rules"
)

// Slot is one bookable opening surfaced by the suggestion read path.
type Slot struct {
	Interval Interval `json:"interval"`
	PeakHour bool     `json:"peak_hour"`
}

// AvailableSlots walks the consultant's working window on the given date in
// 15-minute steps and returns the openings that fit the requested duration.
// A consultant without a working-hours entry for that weekday has no slots.
func (s *HoldService) AvailableSlots(ctx context.Context, consultantID uuid.UUID, date time.Time, duration time.Duration) ([]Slot, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: non-positive slot duration", ErrInvalidInterval)
	}
	consultant, err := s.lookupConsultant(ctx, consultantID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: load consultant for slots: %w", err)
	}
	if consultant == nil || !consultant.Active {
		return nil, nil
	}
	window, ok := consultant.WorkingHours.Window(date)
	if !ok {
		return nil, nil
	}

	dayStart, err := atClock(date, window.Start)
	if err != nil {
		return nil, fmt.Errorf("scheduling: working hours start: %w", err)
	}
	dayEnd, err := atClock(date, window.End)
	if err != nil {
		return nil, fmt.Errorf("scheduling: working hours end: %w", err)
	}

	var peakRules []rules.PeakHourRule
	if s.rules != nil {
		peakRules, err = s.rules.PeakHourRules(ctx, rules.DayKey(date))
		if err != nil {
			s.metrics.ObserveRuleFallback("peak_hours")
			s.logger.Warn("peak hour rule lookup degraded for slots", "error", err)
			peakRules = nil
		}
	}

	now := s.now()
	step := slotStepMinutes * time.Minute
	var out []Slot
	for start := dayStart; !start.Add(duration).After(dayEnd); start = start.Add(step) {
		iv := Interval{Start: start, End: start.Add(duration)}
		count, err := s.store.CountOverlaps(ctx, nil, consultantID, iv, now)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			continue
		}
		out = append(out, Slot{
			Interval: iv,
			PeakHour: rules.HighestMultiplier(peakRules, start) > 1.0,
		})
	}
	return out, nil
}

// atClock pins an "HH:MM" wall-clock onto the given date, in its location.
func atClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}
