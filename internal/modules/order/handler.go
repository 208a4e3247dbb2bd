package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler exposes order HTTP endpoints. Staff-only routes are wrapped with
// the auth middleware at wiring time.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the public and staff order routes. staffOnly is the
// role-checking middleware from the auth module.
func (h *Handler) RegisterRoutes(r *chi.Mux, staffOnly func(http.Handler) http.Handler) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Get("/{id}", h.getOrder) // GET /api/v1/orders/{id}

		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			r.Get("/day", h.listDay)                // GET   /api/v1/orders/day?status=ready
			r.Patch("/{id}/status", h.updateStatus) // PATCH /api/v1/orders/{id}/status
			r.Post("/redeem", h.redeem)             // POST  /api/v1/orders/redeem
		})
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	target := Status(strings.ToLower(req.Status))
	o, err := h.service.Transition(r.Context(), id, target, time.Now())
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		respond(w, http.StatusBadRequest, map[string]string{"error": "token is required"})
		return
	}
	o, err := h.service.RedeemByToken(r.Context(), strings.TrimSpace(req.Token), time.Now())
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) listDay(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	orders, err := h.service.ListDay(r.Context(), time.Now(), strings.ToLower(status))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, orders)
}

// respondErr maps the guard's sentinel errors onto HTTP status codes:
// 404 unknown id/token, 409 duplicate scan or illegal edge, 400 same-day
// rule rejections.
func respondErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrAlreadyRedeemed), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotReady):
		code = http.StatusConflict
	case errors.Is(err, ErrStaleOrder), errors.Is(err, ErrTokenExpired):
		code = http.StatusBadRequest
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
