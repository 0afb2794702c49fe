package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/climbup/booking-platform/internal/booking"
	"github.com/climbup/booking-platform/internal/payments"
	"github.com/climbup/booking-platform/internal/scheduling"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, errorResponse{Error: message})
}

// respondError maps domain errors onto HTTP statuses. Policy rejections are
// 422, lost races 409, dead holds 410, storage outages 503.
func respondError(w http.ResponseWriter, err error) {
	var rej *booking.Rejection
	if errors.As(err, &rej) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: rej.Message, Code: string(rej.Code)})
		return
	}

	switch {
	case errors.Is(err, scheduling.ErrInvalidInterval):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrConsultantNotFound),
		errors.Is(err, scheduling.ErrHoldNotFound),
		errors.Is(err, payments.ErrIntentNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, scheduling.ErrConflict),
		errors.Is(err, scheduling.ErrHoldInvalidState):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, scheduling.ErrHoldExpired):
		jsonError(w, err.Error(), http.StatusGone)
	case errors.Is(err, payments.ErrAmountMismatch):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, scheduling.ErrStoreUnavailable):
		jsonError(w, "storage unavailable", http.StatusServiceUnavailable)
	default:
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
