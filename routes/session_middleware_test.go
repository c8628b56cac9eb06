package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/Erebuzzz/tea-tracker/services"
)

func testConfig() *models.Config {
	var config models.Config
	config = config.New()
	return &config
}

func identityEcho(t *testing.T, got *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := r.Context().Value("identity").(string)
		if !ok {
			t.Fatalf("identity missing from request context")
		}
		*got = identity
	}
}

func TestSessionMiddlewareRejectsMissingCookie(t *testing.T) {
	config := testConfig()
	handler := NewSessionHandler(config).SessionMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run without a session")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSessionMiddlewareRejectsGarbageToken(t *testing.T) {
	config := testConfig()
	session := NewSessionHandler(config)
	handler := session.SessionMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run with a bad token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(&http.Cookie{Name: session.sessions.CookieName(), Value: "not.a.token"})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSessionMiddlewareAcceptsValidCookie(t *testing.T) {
	config := testConfig()
	sessions := services.NewWebSessionManager(config)

	// Issue a real session cookie the way the auth controller would.
	issue := httptest.NewRecorder()
	user := &models.User{Email: "drinker@example.test"}
	if err := sessions.Create(user, issue); err != nil {
		t.Fatalf("create session: %v", err)
	}
	cookies := issue.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected exactly one session cookie, got %d", len(cookies))
	}

	var got string
	handler := NewSessionHandler(config).SessionMiddleware(identityEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(cookies[0])
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got != "drinker@example.test" {
		t.Fatalf("identity = %q, want the session user", got)
	}
}
