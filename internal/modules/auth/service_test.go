package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	svc := NewService("session-secret")

	tok, err := svc.IssueSession(Identity{Subject: "oauth|42", Email: "staff@campus.edu", Name: "Priya"}, RoleStaff)
	require.NoError(t, err)

	claims, err := svc.ParseSession(tok)
	require.NoError(t, err)
	assert.Equal(t, "oauth|42", claims.Subject)
	assert.Equal(t, "staff@campus.edu", claims.Email)
	assert.Equal(t, RoleStaff, claims.Role)
}

func TestUnknownRoleDowngradesToCustomer(t *testing.T) {
	svc := NewService("session-secret")
	tok, err := svc.IssueSession(Identity{Subject: "oauth|42", Email: "x@campus.edu"}, "superadmin")
	require.NoError(t, err)

	claims, err := svc.ParseSession(tok)
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, claims.Role)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	other := NewService("other-secret")
	tok, err := other.IssueSession(Identity{Subject: "oauth|42", Email: "x@campus.edu"}, RoleStaff)
	require.NoError(t, err)

	svc := NewService("session-secret")
	_, err = svc.ParseSession(tok)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestParseRejectsExpiredSession(t *testing.T) {
	claims := &Claims{
		Role: RoleStaff,
		StandardClaims: jwt.StandardClaims{
			Subject:   "oauth|42",
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("session-secret"))
	require.NoError(t, err)

	svc := NewService("session-secret")
	_, err = svc.ParseSession(tok)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestMiddlewareRoleEnforcement(t *testing.T) {
	svc := NewService("session-secret")
	protected := svc.Middleware(RoleStaff)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, RoleStaff, claims.Role)
		w.WriteHeader(http.StatusNoContent)
	}))

	// No token.
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Customer token on a staff route.
	custTok, err := svc.IssueSession(Identity{Subject: "oauth|1", Email: "c@campus.edu"}, RoleCustomer)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+custTok)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Staff token passes.
	staffTok, err := svc.IssueSession(Identity{Subject: "oauth|2", Email: "s@campus.edu"}, RoleStaff)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+staffTok)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
