package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climbup/booking-platform/internal/consultants"
	"github.com/climbup/booking-platform/internal/scheduling"
)

type stubMatcher struct {
	matched  []consultants.Consultant
	err      error
	spec     string
	prefOnly bool
}

func (s *stubMatcher) Match(_ context.Context, specialization string, preferredOnly bool) ([]consultants.Consultant, error) {
	s.spec = specialization
	s.prefOnly = preferredOnly
	return s.matched, s.err
}

type stubSlots struct {
	slots []scheduling.Slot
	err   error
}

func (s *stubSlots) AvailableSlots(context.Context, uuid.UUID, time.Time, time.Duration) ([]scheduling.Slot, error) {
	return s.slots, s.err
}

func consultantsRouter(h *ConsultantsHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/consultants/match", h.Match)
	r.Get("/consultants/{consultantID}/slots", h.Slots)
	return r
}

func TestMatchConsultants(t *testing.T) {
	matcher := &stubMatcher{matched: []consultants.Consultant{
		{ID: uuid.New(), Specialization: "career", HourlyRate: 120, Preferred: true},
		{ID: uuid.New(), Specialization: "career", HourlyRate: 90},
	}}
	h := NewConsultantsHandler(matcher, &stubSlots{}, nil)

	rec := httptest.NewRecorder()
	consultantsRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/consultants/match?specialization=career&preferred_only=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "career", matcher.spec)
	assert.True(t, matcher.prefOnly)

	var resp struct {
		Consultants []consultantView `json:"consultants"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Consultants, 2)
}

func TestMatchRequiresSpecialization(t *testing.T) {
	h := NewConsultantsHandler(&stubMatcher{}, &stubSlots{}, nil)

	rec := httptest.NewRecorder()
	consultantsRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/consultants/match", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSlots(t *testing.T) {
	start := time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC)
	slots := &stubSlots{slots: []scheduling.Slot{
		{Interval: scheduling.Interval{Start: start, End: start.Add(time.Hour)}, PeakHour: false},
	}}
	h := NewConsultantsHandler(&stubMatcher{}, slots, nil)

	rec := httptest.NewRecorder()
	url := "/consultants/" + uuid.NewString() + "/slots?date=2026-01-07&duration_minutes=60"
	consultantsRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Slots []scheduling.Slot `json:"slots"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Slots, 1)
}

func TestSlotsEmptyIsArray(t *testing.T) {
	h := NewConsultantsHandler(&stubMatcher{}, &stubSlots{}, nil)

	rec := httptest.NewRecorder()
	url := "/consultants/" + uuid.NewString() + "/slots?date=2026-01-10"
	consultantsRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"slots":[]}`, rec.Body.String())
}

func TestSlotsBadDate(t *testing.T) {
	h := NewConsultantsHandler(&stubMatcher{}, &stubSlots{}, nil)

	rec := httptest.NewRecorder()
	url := "/consultants/" + uuid.NewString() + "/slots?date=tomorrow"
	consultantsRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
