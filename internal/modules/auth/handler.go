package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Handler exchanges verified OAuth identities for session tokens. The OAuth
// handshake itself happens in the hosting layer; by the time this endpoint
// is called the triple has already been verified against the provider.
type Handler struct {
	service       Service
	staffSubjects map[string]bool
}

// NewHandler creates the auth handler. staffSubjects lists the provider
// subject-ids that get the staff role.
func NewHandler(service Service, staffSubjects []string) *Handler {
	set := make(map[string]bool, len(staffSubjects))
	for _, s := range staffSubjects {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = true
		}
	}
	return &Handler{service: service, staffSubjects: set}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Post("/api/v1/auth/session", h.createSession) // POST /api/v1/auth/session
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var identity Identity
	if err := json.NewDecoder(r.Body).Decode(&identity); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if identity.Subject == "" || identity.Email == "" {
		respond(w, http.StatusBadRequest, map[string]string{"error": "subject and email are required"})
		return
	}

	role := RoleCustomer
	if h.staffSubjects[identity.Subject] {
		role = RoleStaff
	}

	token, err := h.service.IssueSession(identity, role)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, map[string]string{"token": token, "role": role})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
