package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dpkpaswan/canteenqr/internal/modules/token"
)

// Handler exposes the gateway webhook endpoint.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Post("/api/v1/payments/webhook", h.completion) // POST /api/v1/payments/webhook
}

func (h *Handler) completion(w http.ResponseWriter, r *http.Request) {
	var receipt Receipt
	if err := json.NewDecoder(r.Body).Decode(&receipt); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	o, err := h.service.HandleCompletion(r.Context(), receipt, time.Now())
	if err != nil {
		code := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, ErrBadSignature):
			code = http.StatusUnauthorized
		case errors.Is(err, token.ErrAllocationFailed):
			// No order was persisted; the gateway will redeliver.
			code = http.StatusServiceUnavailable
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, o)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
