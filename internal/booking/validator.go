package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/climbup/booking-platform/internal/consultants"
	"github.com/climbup/booking-platform/internal/rules"
	"github.com/climbup/booking-platform/internal/scheduling"
)

// Request is a transient booking attempt, prior to any hold being taken.
type Request struct {
	ConsultantID uuid.UUID           `json:"consultant_id"`
	ClientID     uuid.UUID           `json:"client_id"`
	Interval     scheduling.Interval `json:"interval"`
	Preferences  []string            `json:"preferences,omitempty"`
}

// RejectionCode identifies which policy check failed.
type RejectionCode string

const (
	RejectNotice       RejectionCode = "notice_period"
	RejectDuration     RejectionCode = "max_duration"
	RejectWorkingDay   RejectionCode = "working_day"
	RejectWorkingHours RejectionCode = "working_hours"
	RejectPreferences  RejectionCode = "preference_mismatch"
)

// Rejection is a policy violation with a user-displayable reason. It is a
// recoverable outcome: the caller corrects the request and retries.
type Rejection struct {
	Code    RejectionCode
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("booking rejected (%s): %s", r.Code, r.Message)
}

// Validate enforces booking policy in order, short-circuiting on the first
// failure: notice period, max duration, working-day presence, working-hour
// containment. All boundary comparisons are inclusive. A nil return means
// the request passed every check.
func Validate(req Request, consultant consultants.Consultant, rule rules.BookingRule, now time.Time) *Rejection {
	if err := req.Interval.Validate(); err != nil {
		return &Rejection{Code: RejectDuration, Message: "booking interval is invalid"}
	}

	if req.Interval.Start.Sub(now) < rule.MinNotice() {
		return &Rejection{
			Code:    RejectNotice,
			Message: fmt.Sprintf("booking must be made at least %d hours in advance", int(rule.MinNotice().Hours())),
		}
	}

	if req.Interval.Duration() > rule.MaxDuration() {
		return &Rejection{
			Code:    RejectDuration,
			Message: fmt.Sprintf("maximum booking duration is %d minutes", int(rule.MaxDuration().Minutes())),
		}
	}

	window, ok := consultant.WorkingHours.Window(req.Interval.Start)
	if !ok {
		return &Rejection{Code: RejectWorkingDay, Message: "consultant is not available on this day"}
	}

	dayStart, err := clockOn(req.Interval.Start, window.Start)
	if err != nil {
		return &Rejection{Code: RejectWorkingHours, Message: "consultant working hours are misconfigured"}
	}
	dayEnd, err := clockOn(req.Interval.Start, window.End)
	if err != nil {
		return &Rejection{Code: RejectWorkingHours, Message: "consultant working hours are misconfigured"}
	}
	if req.Interval.Start.Before(dayStart) || req.Interval.End.After(dayEnd) {
		return &Rejection{Code: RejectWorkingHours, Message: "booking time is outside consultant's working hours"}
	}

	return nil
}

func clockOn(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("booking: parse clock %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}
