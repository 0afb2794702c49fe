package scheduling

import (
	"fmt"
	"time"
)

// Interval is a half-open time range [Start, End). Touching boundaries do
// not conflict: a slot ending at 10:00 coexists with one starting at 10:00.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval builds a validated interval.
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate enforces start < end.
func (iv Interval) Validate() error {
	if !iv.Start.Before(iv.End) {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidInterval, iv.Start, iv.End)
	}
	return nil
}

// Overlaps reports strict overlap with another interval.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Hours returns the interval length in fractional hours.
func (iv Interval) Hours() float64 {
	return iv.Duration().Hours()
}
