package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"linkdeck/internal/database"
	"linkdeck/internal/repository"
	"linkdeck/internal/security"
	"linkdeck/internal/service"
)

func newTestMiddleware(t *testing.T) (*Middleware, *service.AuthService, *security.CSRFGenerator) {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if err := db.SeedReservedUsernames(); err != nil {
		t.Fatalf("Failed to seed reserved usernames: %v", err)
	}

	authService := service.NewAuthService(repository.NewUserRepository(db), repository.NewProfileRepository(db), 24*time.Hour)
	csrf := security.NewCSRFGenerator("test-secret")
	return NewMiddleware(authService, csrf), authService, csrf
}

func loginTestUser(t *testing.T, authService *service.AuthService) string {
	t.Helper()
	if _, err := authService.Register("admin@example.com", "password123", "Test User", "admin-user"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	session, _, err := authService.Login("admin@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return session.ID
}

func TestRequireAuthRejectsMissingSession(t *testing.T) {
	m, _, _ := newTestMiddleware(t)

	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached")
	})

	r := httptest.NewRequest("GET", "/api/me", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestRequireAuthRejectsBogusSession(t *testing.T) {
	m, _, _ := newTestMiddleware(t)

	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached")
	})

	r := httptest.NewRequest("GET", "/api/me", nil)
	r.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: "no-such-session"})
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}

	// The dead cookie is cleared on the way out
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == security.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("Expected the session cookie to be deleted")
	}
}

func TestRequireAuthPassesUserThrough(t *testing.T) {
	m, authService, _ := newTestMiddleware(t)
	sessionID := loginTestUser(t, authService)

	var sawUser, sawSession bool
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		if user := GetUserFromContext(r.Context()); user != nil && user.Email == "admin@example.com" {
			sawUser = true
		}
		if GetSessionIDFromContext(r.Context()) == sessionID {
			sawSession = true
		}
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest("GET", "/api/me", nil)
	r.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: sessionID})
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if !sawUser {
		t.Error("Expected the user on the request context")
	}
	if !sawSession {
		t.Error("Expected the session id on the request context")
	}
}

func TestCSRFProtect(t *testing.T) {
	m, authService, csrf := newTestMiddleware(t)
	sessionID := loginTestUser(t, authService)

	handler := m.RequireAuth(m.CSRFProtect(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// Mutation without a token is blocked
	r := httptest.NewRequest("POST", "/api/cards", nil)
	r.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: sessionID})
	w := httptest.NewRecorder()
	handler(w, r)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without token, got %d", w.Code)
	}

	// Mutation with the session's token goes through
	token, err := csrf.TokenFor(sessionID)
	if err != nil {
		t.Fatalf("TokenFor failed: %v", err)
	}
	r = httptest.NewRequest("POST", "/api/cards", nil)
	r.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: sessionID})
	r.Header.Set("X-CSRF-Token", token)
	w = httptest.NewRecorder()
	handler(w, r)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 with token, got %d", w.Code)
	}

	// Reads never need a token
	r = httptest.NewRequest("GET", "/api/cards", nil)
	r.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: sessionID})
	w = httptest.NewRecorder()
	handler(w, r)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for GET, got %d", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := security.NewRateLimiter(2, time.Minute)

	handler := RateLimit(limiter, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest("POST", "/api/login", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("Request %d should pass, got %d", i+1, w.Code)
		}
	}

	r := httptest.NewRequest("POST", "/api/login", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	handler(w, r)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 over the limit, got %d", w.Code)
	}
}
