package handlers

import (
	"bytes"
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

	"github.com/climbup/booking-platform/internal/booking"
	"github.com/climbup/booking-platform/internal/payments"
	"github.com/climbup/booking-platform/internal/scheduling"
)

type stubBooking struct {
	quote *booking.Quote
	err   error
}

func (s *stubBooking) Book(context.Context, booking.Request) (*booking.Quote, error) {
	return s.quote, s.err
}

type stubHolds struct {
	available bool
	valid     bool
	appt      *scheduling.Appointment
	err       error
}

func (s *stubHolds) CheckAvailability(context.Context, uuid.UUID, scheduling.Interval) (bool, error) {
	return s.available, s.err
}

func (s *stubHolds) ValidateHold(context.Context, uuid.UUID) (bool, error) {
	return s.valid, s.err
}

func (s *stubHolds) ConvertHold(context.Context, uuid.UUID) (*scheduling.Appointment, error) {
	return s.appt, s.err
}

type stubIntents struct {
	stored []payments.Intent
	err    error
}

func (s *stubIntents) StoreIntent(_ context.Context, intent payments.Intent) error {
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, intent)
	return nil
}

func bookingRouter(h *BookingHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/availability", h.CheckAvailability)
	r.Post("/holds", h.CreateHold)
	r.Get("/holds/{holdID}", h.ValidateHold)
	r.Post("/holds/{holdID}/convert", h.ConvertHold)
	return r
}

func sampleQuote() *booking.Quote {
	return &booking.Quote{
		Hold: &scheduling.Hold{
			ID:           uuid.New(),
			ConsultantID: uuid.New(),
			ClientID:     uuid.New(),
			Status:       scheduling.HoldActive,
		},
		Amount: 180,
	}
}

func TestCreateHoldSuccess(t *testing.T) {
	quote := sampleQuote()
	intents := &stubIntents{}
	h := NewBookingHandler(&stubBooking{quote: quote}, &stubHolds{}, intents, nil)

	body, _ := json.Marshal(createHoldRequest{
		ConsultantID: uuid.New(),
		ClientID:     uuid.New(),
		Start:        time.Now().Add(25 * time.Hour),
		End:          time.Now().Add(26 * time.Hour),
	})
	rec := httptest.NewRecorder()
	bookingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp createHoldResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, quote.Hold.ID, resp.Hold.ID)
	assert.Equal(t, 180.0, resp.Amount)
	assert.NotEqual(t, uuid.Nil, resp.PaymentID)

	require.Len(t, intents.stored, 1)
	assert.Equal(t, quote.Hold.ID, intents.stored[0].HoldID)
	assert.Equal(t, 180.0, intents.stored[0].Amount)
}

func TestCreateHoldConflict(t *testing.T) {
	h := NewBookingHandler(&stubBooking{err: scheduling.ErrConflict}, &stubHolds{}, &stubIntents{}, nil)

	body, _ := json.Marshal(createHoldRequest{ConsultantID: uuid.New(), ClientID: uuid.New()})
	rec := httptest.NewRecorder()
	bookingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader(body)))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateHoldRejected(t *testing.T) {
	rej := &booking.Rejection{Code: booking.RejectNotice, Message: "booking must be made at least 24 hours in advance"}
	h := NewBookingHandler(&stubBooking{err: rej}, &stubHolds{}, &stubIntents{}, nil)

	body, _ := json.Marshal(createHoldRequest{ConsultantID: uuid.New(), ClientID: uuid.New()})
	rec := httptest.NewRecorder()
	bookingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader(body)))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, string(booking.RejectNotice), resp.Code)
}

func TestCreateHoldIntentStoreDown(t *testing.T) {
	h := NewBookingHandler(&stubBooking{quote: sampleQuote()}, &stubHolds{}, &stubIntents{err: context.DeadlineExceeded}, nil)

	body, _ := json.Marshal(createHoldRequest{ConsultantID: uuid.New(), ClientID: uuid.New()})
	rec := httptest.NewRecorder()
	bookingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader(body)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateHoldMissingIDs(t *testing.T) {
	h := NewBookingHandler(&stubBooking{}, &stubHolds{}, &stubIntents{}, nil)

	body, _ := json.Marshal(createHoldRequest{})
	rec := httptest.NewRecorder()
	bookingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckAvailability(t *testing.T) {
	h := NewBookingHandler(&stubBooking{}, &stubHolds{available: true}, &stubIntents{}, nil)

	url := "/availability?consultant_id=" + uuid.NewString() +
		"&start=2026-01-07T10:00:00Z&end=2026-01-07T11:00:00Z"
	rec := httptest.NewRecorder()
	bookingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]bool
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp["available"])
}

func TestCheckAvailabilityBadInterval(t *testing.T) {
	h := NewBookingHandler(&stubBooking{}, &stubHolds{}, &stubIntents{}, nil)

	// End precedes start.
	url := "/availability?consultant_id=" + uuid.NewString() +
		"&start=2026-01-07T11:00:00Z&end=2026-01-07T10:00:00Z"
	rec := httptest.NewRecorder()
	bookingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateHold(t *testing.T) {
	h := NewBookingHandler(&stubBooking{}, &stubHolds{valid: true}, &stubIntents{}, nil)

	rec := httptest.NewRecorder()
	bookingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/holds/"+uuid.NewString(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]bool
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp["valid"])
}

func TestConvertHoldExpired(t *testing.T) {
	h := NewBookingHandler(&stubBooking{}, &stubHolds{err: scheduling.ErrHoldExpired}, &stubIntents{}, nil)

	rec := httptest.NewRecorder()
	bookingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/holds/"+uuid.NewString()+"/convert", nil))

	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestConvertHoldSuccess(t *testing.T) {
	appt := &scheduling.Appointment{ID: uuid.New(), Status: scheduling.AppointmentConfirmed}
	h := NewBookingHandler(&stubBooking{}, &stubHolds{appt: appt}, &stubIntents{}, nil)

	rec := httptest.NewRecorder()
	bookingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/holds/"+uuid.NewString()+"/convert", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp scheduling.Appointment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, appt.ID, resp.ID)
}
