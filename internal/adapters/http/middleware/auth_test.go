package middleware_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskledger/internal/adapters/http/middleware"
	"taskledger/internal/domain"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func authHandler(t *testing.T) (http.Handler, *domain.Actor) {
	t.Helper()
	var captured domain.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			t.Error("no actor in context inside authenticated handler")
		}
		captured = actor
		w.WriteHeader(http.StatusNoContent)
	})
	return middleware.Auth(testSecret, slog.New(slog.DiscardHandler))(next), &captured
}

func TestAuth_ValidToken(t *testing.T) {
	t.Parallel()
	handler, actor := authHandler(t)

	token := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         "alice",
		"admin":       true,
		"given_name":  "Alice",
		"family_name": "Anders",
		"exp":         time.Now().Add(time.Hour).Unix(),
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204; body = %s", rec.Code, rec.Body.String())
	}
	if actor.UserID != "alice" {
		t.Errorf("UserID = %q, want alice", actor.UserID)
	}
	if !actor.Admin {
		t.Error("Admin = false, want true")
	}
	if actor.FirstName != "Alice" || actor.LastName != "Anders" {
		t.Errorf("name = %q %q, want Alice Anders", actor.FirstName, actor.LastName)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	t.Parallel()
	handler, _ := authHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", http.NoBody)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", got)
	}
}

func TestAuth_MalformedHeader(t *testing.T) {
	t.Parallel()
	handler, _ := authHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", http.NoBody)
	req.Header.Set("Authorization", "Token abc")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_WrongSecret(t *testing.T) {
	t.Parallel()
	handler, _ := authHandler(t)

	token := signToken(t, "other-secret", jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	t.Parallel()
	handler, _ := authHandler(t)

	token := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_MissingSubject(t *testing.T) {
	t.Parallel()
	handler, _ := authHandler(t)

	token := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
		"admin": true,
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestActorFromContext_NotFound(t *testing.T) {
	t.Parallel()

	_, ok := middleware.ActorFromContext(t.Context())
	if ok {
		t.Error("ActorFromContext = true, want false")
	}
}
