package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gameon-esports/gameon-rooms/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signedToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func playerClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": float64(101),
		"role":    "player",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
}

func authProbe(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	reached := false
	handler := Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		userID, err := GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		require.Equal(t, 101, userID)
		role, err := GetUserRoleFromContext(r.Context())
		require.NoError(t, err)
		require.Equal(t, models.RolePlayer, role)
	}))
	return handler, &reached
}

func TestAuthenticateBearerHeader(t *testing.T) {
	handler, reached := authProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/tournaments/1/room", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, playerClaims()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, *reached)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateTokenQueryParam(t *testing.T) {
	handler, reached := authProbe(t)

	// Browser websocket clients cannot set headers on the upgrade request.
	url := "/ws/tournaments/1?token=" + signedToken(t, testSecret, playerClaims())
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, *reached)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateRejections(t *testing.T) {
	tests := []struct {
		name    string
		request func(t *testing.T) *http.Request
	}{
		{"no credentials", func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodGet, "/ws/tournaments/1", nil)
		}},
		{"malformed header", func(t *testing.T) *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/tournaments/1/room", nil)
			req.Header.Set("Authorization", "Token abc")
			return req
		}},
		{"wrong signing key", func(t *testing.T) *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/tournaments/1/room", nil)
			req.Header.Set("Authorization", "Bearer "+signedToken(t, []byte("other-secret"), playerClaims()))
			return req
		}},
		{"expired token", func(t *testing.T) *http.Request {
			claims := playerClaims()
			claims["exp"] = time.Now().Add(-time.Hour).Unix()
			req := httptest.NewRequest(http.MethodGet, "/tournaments/1/room", nil)
			req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, claims))
			return req
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, reached := authProbe(t)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, tc.request(t))

			require.False(t, *reached)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	reached := false
	handler := Authenticate(testSecret)(RequireRole(models.RoleAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true }),
	))

	req := httptest.NewRequest(http.MethodGet, "/admin/tournaments/1/room", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, playerClaims()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.False(t, reached)
	require.Equal(t, http.StatusForbidden, rec.Code)

	adminClaims := jwt.MapClaims{
		"user_id": float64(900),
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	req = httptest.NewRequest(http.MethodGet, "/admin/tournaments/1/room", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, adminClaims))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.True(t, reached)
	require.Equal(t, http.StatusOK, rec.Code)
}
