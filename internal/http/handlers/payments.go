package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/climbup/booking-platform/internal/scheduling"
	"github.com/climbup/booking-platform/pkg/logging"
)

type paymentConfirmer interface {
	Confirm(ctx context.Context, paymentID uuid.UUID, amount float64) (*scheduling.Appointment, error)
}

// PaymentsHandler serves payment confirmation.
type PaymentsHandler struct {
	service paymentConfirmer
	logger  *logging.Logger
}

func NewPaymentsHandler(service paymentConfirmer, logger *logging.Logger) *PaymentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PaymentsHandler{service: service, logger: logger}
}

type confirmRequest struct {
	Amount float64 `json:"amount"`
}

// Confirm handles POST /payments/{paymentID}/confirm.
func (h *PaymentsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		jsonError(w, "invalid payment id", http.StatusBadRequest)
		return
	}
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Confirm(r.Context(), paymentID, req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}
