package consultants

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/climbup/booking-platform/internal/rules"
)

// MatchThresholdPercent is the minimum weighted preference match for a
// consultant to qualify when client preferences accompany a booking check.
// A named business parameter rather than a literal so product can tune it.
const MatchThresholdPercent = 70.0

// DayWindow is a consultant's working window on one weekday, "HH:MM" local.
type DayWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WorkingHours maps lowercase weekday names to working windows. A missing
// day means the consultant does not work that day.
type WorkingHours map[string]DayWindow

// Window returns the working window for t's weekday.
func (w WorkingHours) Window(t time.Time) (DayWindow, bool) {
	win, ok := w[strings.ToLower(t.Weekday().String())]
	return win, ok
}

// Consultant is the bookable profile. It is immutable during a single
// booking evaluation; profile management mutates it elsewhere.
type Consultant struct {
	ID              uuid.UUID
	Specialization  string
	HourlyRate      float64
	YearsExperience int
	Preferred       bool
	Active          bool
	WorkingHours    WorkingHours
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MatchPercentage computes the weighted fraction of active specialization
// preference rules the consultant satisfies, as a percentage. The second
// return is false when no applicable rules exist.
func MatchPercentage(c Consultant, prefRules []rules.PreferenceRule) (float64, bool) {
	var totalWeight, matchedWeight float64
	for _, r := range prefRules {
		if !r.Active || r.PreferenceType != "specialization" {
			continue
		}
		totalWeight += r.Weight
		if strings.EqualFold(c.Specialization, r.Value) {
			matchedWeight += r.Weight
		}
	}
	if totalWeight == 0 {
		return 0, false
	}
	return matchedWeight / totalWeight * 100, true
}

// Qualifies reports whether the consultant meets the preference threshold.
// With no applicable rules every consultant qualifies.
func Qualifies(c Consultant, prefRules []rules.PreferenceRule) bool {
	pct, applicable := MatchPercentage(c, prefRules)
	if !applicable {
		return true
	}
	return pct >= MatchThresholdPercent
}
