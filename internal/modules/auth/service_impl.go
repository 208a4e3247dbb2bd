package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// Claims are the session claims embedded in the JWT.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

type contextKey string

const identityKey contextKey = "auth.identity"

// IdentityFromContext returns the claims stashed by Middleware.
func IdentityFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(identityKey).(*Claims)
	return c, ok
}

type service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates an auth service signing sessions with the given
// secret. Sessions last 24h.
func NewService(secret string) Service {
	return &service{secret: []byte(secret), ttl: 24 * time.Hour}
}

func (s *service) IssueSession(identity Identity, role string) (string, error) {
	if role != RoleStaff {
		role = RoleCustomer
	}
	claims := &Claims{
		Email: identity.Email,
		Name:  identity.Name,
		Role:  role,
		StandardClaims: jwt.StandardClaims{
			Subject:   identity.Subject,
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(s.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *service) ParseSession(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer session (401) or with
// the wrong role (403), and stashes the claims in the request context.
func (s *service) Middleware(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := s.ParseSession(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				http.Error(w, "invalid session", http.StatusUnauthorized)
				return
			}
			if requiredRole != "" && claims.Role != requiredRole {
				http.Error(w, "insufficient role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, claims)))
		})
	}
}
