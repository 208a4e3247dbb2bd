package auth

import "net/http"

// Identity is the verified (subject, email, name) triple supplied by the
// external OAuth provider. This module never sees credentials; it only
// exchanges an already-verified identity for a session token.
type Identity struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// Roles carried in session claims.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

// Service defines session handling over externally-verified identities.
type Service interface {
	// IssueSession mints a signed session token for the identity.
	IssueSession(identity Identity, role string) (string, error)

	// ParseSession validates a session token and returns its claims.
	ParseSession(tokenString string) (*Claims, error)

	// Middleware gates a route group on a valid session with the role.
	Middleware(requiredRole string) func(http.Handler) http.Handler
}
