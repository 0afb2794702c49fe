package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/climbup/booking-platform/internal/consultants"
	"github.com/climbup/booking-platform/internal/scheduling"
	"github.com/climbup/booking-platform/pkg/logging"
)

const defaultSlotMinutes = 60

type consultantMatcher interface {
	Match(ctx context.Context, specialization string, preferredOnly bool) ([]consultants.Consultant, error)
}

type slotLister interface {
	AvailableSlots(ctx context.Context, consultantID uuid.UUID, date time.Time, duration time.Duration) ([]scheduling.Slot, error)
}

// ConsultantsHandler serves the consultant browse and slot suggestion
// endpoints.
type ConsultantsHandler struct {
	matcher consultantMatcher
	slots   slotLister
	logger  *logging.Logger
}

func NewConsultantsHandler(matcher consultantMatcher, slots slotLister, logger *logging.Logger) *ConsultantsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ConsultantsHandler{matcher: matcher, slots: slots, logger: logger}
}

type consultantView struct {
	ID              uuid.UUID `json:"id"`
	Specialization  string    `json:"specialization"`
	HourlyRate      float64   `json:"hourly_rate"`
	YearsExperience int       `json:"years_experience"`
	Preferred       bool      `json:"preferred"`
}

// Match handles GET /consultants/match.
func (h *ConsultantsHandler) Match(w http.ResponseWriter, r *http.Request) {
	specialization := r.URL.Query().Get("specialization")
	if specialization == "" {
		jsonError(w, "specialization is required", http.StatusBadRequest)
		return
	}
	preferredOnly, _ := strconv.ParseBool(r.URL.Query().Get("preferred_only"))

	matched, err := h.matcher.Match(r.Context(), specialization, preferredOnly)
	if err != nil {
		respondError(w, err)
		return
	}

	views := make([]consultantView, 0, len(matched))
	for _, c := range matched {
		views = append(views, consultantView{
			ID:              c.ID,
			Specialization:  c.Specialization,
			HourlyRate:      c.HourlyRate,
			YearsExperience: c.YearsExperience,
			Preferred:       c.Preferred,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"consultants": views})
}

// Slots handles GET /consultants/{consultantID}/slots.
func (h *ConsultantsHandler) Slots(w http.ResponseWriter, r *http.Request) {
	consultantID, err := uuid.Parse(chi.URLParam(r, "consultantID"))
	if err != nil {
		jsonError(w, "invalid consultant id", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		jsonError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	minutes, _ := strconv.Atoi(r.URL.Query().Get("duration_minutes"))
	if minutes <= 0 {
		minutes = defaultSlotMinutes
	}

	slots, err := h.slots.AvailableSlots(r.Context(), consultantID, date, time.Duration(minutes)*time.Minute)
	if err != nil {
		respondError(w, err)
		return
	}
	if slots == nil {
		slots = []scheduling.Slot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}
