package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/climbup/booking-platform/internal/booking"
	"github.com/climbup/booking-platform/internal/payments"
	"github.com/climbup/booking-platform/internal/scheduling"
	"github.com/climbup/booking-platform/pkg/logging"
)

type bookingService interface {
	Book(ctx context.Context, req booking.Request) (*booking.Quote, error)
}

type holdService interface {
	CheckAvailability(ctx context.Context, consultantID uuid.UUID, iv scheduling.Interval) (bool, error)
	ValidateHold(ctx context.Context, holdID uuid.UUID) (bool, error)
	ConvertHold(ctx context.Context, holdID uuid.UUID) (*scheduling.Appointment, error)
}

type intentWriter interface {
	StoreIntent(ctx context.Context, intent payments.Intent) error
}

// BookingHandler serves the availability and hold lifecycle endpoints.
type BookingHandler struct {
	booking bookingService
	holds   holdService
	intents intentWriter
	logger  *logging.Logger
	now     func() time.Time
}

func NewBookingHandler(bookingSvc bookingService, holds holdService, intents intentWriter, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{
		booking: bookingSvc,
		holds:   holds,
		intents: intents,
		logger:  logger,
		now:     time.Now,
	}
}

// CheckAvailability handles GET /availability.
func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	consultantID, err := uuid.Parse(r.URL.Query().Get("consultant_id"))
	if err != nil {
		jsonError(w, "invalid consultant_id", http.StatusBadRequest)
		return
	}
	iv, err := parseIntervalQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	available, err := h.holds.CheckAvailability(r.Context(), consultantID, iv)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

type createHoldRequest struct {
	ConsultantID uuid.UUID `json:"consultant_id"`
	ClientID     uuid.UUID `json:"client_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Preferences  []string  `json:"preferences,omitempty"`
}

type createHoldResponse struct {
	Hold      *scheduling.Hold `json:"hold"`
	Amount    float64          `json:"amount"`
	PaymentID uuid.UUID        `json:"payment_id"`
}

// CreateHold handles POST /holds. The response carries a payment ID the
// client uses to confirm within the hold window.
func (h *BookingHandler) CreateHold(w http.ResponseWriter, r *http.Request) {
	var req createHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ConsultantID == uuid.Nil || req.ClientID == uuid.Nil {
		jsonError(w, "consultant_id and client_id are required", http.StatusBadRequest)
		return
	}

	quote, err := h.booking.Book(r.Context(), booking.Request{
		ConsultantID: req.ConsultantID,
		ClientID:     req.ClientID,
		Interval:     scheduling.Interval{Start: req.Start, End: req.End},
		Preferences:  req.Preferences,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	intent := payments.Intent{
		PaymentID: uuid.New(),
		HoldID:    quote.Hold.ID,
		Amount:    quote.Amount,
		CreatedAt: h.now(),
	}
	if err := h.intents.StoreIntent(r.Context(), intent); err != nil {
		h.logger.Error("failed to store payment intent", "hold_id", quote.Hold.ID, "error", err)
		jsonError(w, "payment intent unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusCreated, createHoldResponse{
		Hold:      quote.Hold,
		Amount:    quote.Amount,
		PaymentID: intent.PaymentID,
	})
}

// ValidateHold handles GET /holds/{holdID}.
func (h *BookingHandler) ValidateHold(w http.ResponseWriter, r *http.Request) {
	holdID, err := uuid.Parse(chi.URLParam(r, "holdID"))
	if err != nil {
		jsonError(w, "invalid hold id", http.StatusBadRequest)
		return
	}
	valid, err := h.holds.ValidateHold(r.Context(), holdID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// ConvertHold handles POST /holds/{holdID}/convert.
func (h *BookingHandler) ConvertHold(w http.ResponseWriter, r *http.Request) {
	holdID, err := uuid.Parse(chi.URLParam(r, "holdID"))
	if err != nil {
		jsonError(w, "invalid hold id", http.StatusBadRequest)
		return
	}
	appt, err := h.holds.ConvertHold(r.Context(), holdID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func parseIntervalQuery(r *http.Request) (scheduling.Interval, error) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		return scheduling.Interval{}, scheduling.ErrInvalidInterval
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		return scheduling.Interval{}, scheduling.ErrInvalidInterval
	}
	return scheduling.NewInterval(start, end)
}
