package middleware

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func runAuth(t *testing.T, header string, app *App) (*AppContext, *httptest.ResponseRecorder, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	cc := &AppContext{e.NewContext(req, rec), app, nil}

	nextCalled := false
	next := func(c echo.Context) error {
		nextCalled = true
		return nil
	}
	if err := AuthMiddleware(next)(cc); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return cc, rec, nextCalled
}

func TestAuthMiddlewareRejects(t *testing.T) {
	secret := []byte("test-secret")
	app := &App{JWTSecret: secret, MasterAPIKey: "master-key"}

	expired := signToken(t, secret, jwt.MapClaims{
		"id":  "1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongSecret := signToken(t, []byte("other-secret"), jwt.MapClaims{"id": "1"})
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": "1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign none token: %v", err)
	}
	missingID := signToken(t, secret, jwt.MapClaims{"role": "user"})

	tests := []struct {
		name   string
		header string
	}{
		{
			name:   "missing header",
			header: "",
		},
		{
			name:   "not a bearer token",
			header: "Basic abc123",
		},
		{
			name:   "garbage token",
			header: "Bearer not-a-jwt",
		},
		{
			name:   "expired token",
			header: "Bearer " + expired,
		},
		{
			name:   "wrong secret",
			header: "Bearer " + wrongSecret,
		},
		{
			name:   "unsigned token",
			header: "Bearer " + noneAlg,
		},
		{
			name:   "missing id claim",
			header: "Bearer " + missingID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc, rec, nextCalled := runAuth(t, tt.header, app)
			if nextCalled {
				t.Fatal("next handler should not have been called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("unexpected status: got %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if cc.User != nil {
				t.Fatalf("user should not be set, got %+v", cc.User)
			}
		})
	}
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	secret := []byte("test-secret")
	app := &App{JWTSecret: secret}

	token := signToken(t, secret, jwt.MapClaims{
		"id":          "42",
		"role":        "user",
		"permissions": []string{"run.view", "transcript.create"},
		"exp":         time.Now().Add(time.Hour).Unix(),
	})

	cc, _, nextCalled := runAuth(t, "Bearer "+token, app)
	if !nextCalled {
		t.Fatal("next handler was not called")
	}
	if cc.User == nil {
		t.Fatal("user was not set")
	}
	if cc.User.UserID != 42 {
		t.Fatalf("unexpected user id: got %d, want 42", cc.User.UserID)
	}
	if cc.User.Role != "user" {
		t.Fatalf("unexpected role: got %q, want %q", cc.User.Role, "user")
	}
	if !slices.Equal(cc.User.Permissions, []string{"run.view", "transcript.create"}) {
		t.Fatalf("unexpected permissions: %v", cc.User.Permissions)
	}
}

func TestAuthMiddlewareNumericIDClaim(t *testing.T) {
	secret := []byte("test-secret")
	app := &App{JWTSecret: secret}

	token := signToken(t, secret, jwt.MapClaims{"id": 7})

	cc, _, nextCalled := runAuth(t, "Bearer "+token, app)
	if !nextCalled {
		t.Fatal("next handler was not called")
	}
	if cc.User == nil || cc.User.UserID != 7 {
		t.Fatalf("unexpected user: %+v", cc.User)
	}
}

func TestAuthMiddlewareAdminDefaultPermissions(t *testing.T) {
	secret := []byte("test-secret")
	app := &App{JWTSecret: secret}

	token := signToken(t, secret, jwt.MapClaims{
		"id":   "1",
		"role": "admin",
	})

	cc, _, nextCalled := runAuth(t, "Bearer "+token, app)
	if !nextCalled {
		t.Fatal("next handler was not called")
	}
	if cc.User == nil {
		t.Fatal("user was not set")
	}
	if !slices.Equal(cc.User.Permissions, allPermissions) {
		t.Fatalf("admin without explicit permissions should get all, got %v", cc.User.Permissions)
	}
}

func TestAuthMiddlewareMasterKey(t *testing.T) {
	app := &App{JWTSecret: []byte("test-secret"), MasterAPIKey: "master-key"}

	cc, _, nextCalled := runAuth(t, "Bearer master-key", app)
	if !nextCalled {
		t.Fatal("next handler was not called")
	}
	if cc.User == nil {
		t.Fatal("user was not set")
	}
	if cc.User.Role != "admin" {
		t.Fatalf("unexpected role: got %q, want %q", cc.User.Role, "admin")
	}
	if !slices.Equal(cc.User.Permissions, allPermissions) {
		t.Fatalf("unexpected permissions: %v", cc.User.Permissions)
	}
}

func TestAuthMiddlewareEmptyMasterKeyNotABypass(t *testing.T) {
	app := &App{JWTSecret: []byte("test-secret"), MasterAPIKey: ""}

	_, rec, nextCalled := runAuth(t, "Bearer ", app)
	if nextCalled {
		t.Fatal("next handler should not have been called")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
