package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atinyakov/donorlink/internal/models"
	"github.com/atinyakov/donorlink/internal/repository"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type fakeAuthenticator map[string]*repository.User

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*repository.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown token")
}

var (
	alice   = &repository.User{ID: "alice", Profile: models.Profile{Status: models.StatusCompleted}}
	pending = &repository.User{ID: "bob", Profile: models.Profile{Status: models.StatusPending}}
	tokens  = fakeAuthenticator{"good": alice, "pending": pending}
)

func TestAuthenticate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic Z29vZA=="},
		{"empty bearer", "Bearer "},
		{"unknown token", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dummy := &dummyHandler{}
			h := Authenticate(tokens, nil)(dummy)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/user/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			h.ServeHTTP(rec, req)

			if dummy.called {
				t.Error("did not expect next handler to be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401 Unauthorized, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("expected JSON error body, got %q", rec.Body.String())
			}
		})
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	dummy := &dummyHandler{}
	h := Authenticate(tokens, nil)(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(rec, req)

	if !dummy.called {
		t.Fatal("expected next handler to be called when a valid token is provided")
	}
	if got := GetUserIDFromContext(dummy.ctx); got != "alice" {
		t.Errorf("expected context user 'alice', got '%s'", got)
	}
}

func TestRequireVerified(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		wantCode int
		wantBody string
	}{
		{"verified", "good", http.StatusOK, ""},
		{"pending", "pending", http.StatusForbidden, "please complete verification"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dummy := &dummyHandler{}
			h := Authenticate(tokens, nil)(RequireVerified(dummy))
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/user/stats", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireVerified_WithoutUser(t *testing.T) {
	dummy := &dummyHandler{}
	rec := httptest.NewRecorder()
	RequireVerified(dummy).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if dummy.called || rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without calling next, got %d", rec.Code)
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	if empty := GetUserIDFromContext(context.Background()); empty != "" {
		t.Errorf("expected empty string for missing user, got '%s'", empty)
	}
	ctx := context.WithValue(context.Background(), userKey, alice)
	if val := GetUserIDFromContext(ctx); val != "alice" {
		t.Errorf("expected 'alice', got '%s'", val)
	}
}
