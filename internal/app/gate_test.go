package app_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/authline/authline/internal/app"
	"github.com/authline/authline/internal/auth"
	"github.com/authline/authline/internal/shared"
	"github.com/authline/authline/internal/store"
)

type fakeReadiness struct {
	ready bool
}

func (f *fakeReadiness) Ready() bool { return f.ready }

func (f *fakeReadiness) State() store.State {
	if f.ready {
		return store.StateConnected
	}
	return store.StateDisconnected
}

func TestRequireReadyBlocksWhenStoreDown(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	handler := app.RequireReady(&fakeReadiness{ready: false})(next)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/register", nil))

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	if called {
		t.Fatalf("next handler must not run while store is not ready")
	}
}

func TestRequireReadyPassesWhenStoreUp(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	handler := app.RequireReady(&fakeReadiness{ready: true})(next)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/login", nil))

	if !called {
		t.Fatalf("next handler did not run")
	}
}

func TestRequireTokenMissingHeader(t *testing.T) {
	tokens := auth.NewTokenService([]byte("secret"), time.Hour)
	handler := app.RequireToken(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run without a token")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/profile", nil))
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}

	// wrong scheme is also "no token"
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong scheme, got %d", res.Code)
	}
}

func TestRequireTokenInvalidToken(t *testing.T) {
	tokens := auth.NewTokenService([]byte("secret"), time.Hour)
	handler := app.RequireToken(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid token, got %d", res.Code)
	}
}

func TestRequireTokenExpiredToken(t *testing.T) {
	expired := auth.NewTokenService([]byte("secret"), -time.Minute)
	tok, err := expired.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier := auth.NewTokenService([]byte("secret"), time.Hour)
	handler := app.RequireToken(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run with an expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for expired token, got %d", res.Code)
	}
}

func TestRequireTokenAttachesUserID(t *testing.T) {
	tokens := auth.NewTokenService([]byte("secret"), time.Hour)
	tok, err := tokens.Issue("user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var gotID string
	handler := app.RequireToken(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = shared.UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if gotID != "user-42" {
		t.Fatalf("user id not propagated: got %q", gotID)
	}
}
