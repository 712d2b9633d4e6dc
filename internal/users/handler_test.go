package users

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/authline/authline/internal/shared"
)

func newProfileRouter(repo RepositoryPort) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo))
	r := chi.NewRouter()
	r.Route("/profile", handler.MountRoutes)
	return r
}

func asUser(req *http.Request, id string) *http.Request {
	return req.WithContext(shared.ContextWithUserID(req.Context(), id))
}

func TestGetProfile(t *testing.T) {
	router := newProfileRouter(newMemoryRepo(seedUser()))

	req := asUser(httptest.NewRequest(http.MethodGet, "/profile", nil), "user-1")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.NotContains(t, res.Body.String(), "password")

	var body map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "user-1", body["id"])
	require.Equal(t, "Ada", body["name"])
	require.Equal(t, RoleMember, body["role"])
	require.NotEmpty(t, body["createdAt"])
	// a user who has never logged in gets a display-only default
	require.NotEmpty(t, body["lastLogin"])
}

func TestGetProfileUserGone(t *testing.T) {
	router := newProfileRouter(newMemoryRepo())

	req := asUser(httptest.NewRequest(http.MethodGet, "/profile", nil), "user-1")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusNotFound, res.Code)
}

func TestGetProfileKeepsStoredLastLogin(t *testing.T) {
	user := seedUser()
	at := time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)
	user.LastLogin = &at
	router := newProfileRouter(newMemoryRepo(user))

	req := asUser(httptest.NewRequest(http.MethodGet, "/profile", nil), "user-1")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var body struct {
		LastLogin time.Time `json:"lastLogin"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.True(t, body.LastLogin.Equal(at))
}

func TestPutProfilePartialUpdate(t *testing.T) {
	repo := newMemoryRepo(seedUser())
	router := newProfileRouter(repo)

	req := asUser(httptest.NewRequest(http.MethodPut, "/profile",
		strings.NewReader(`{"name":"Grace"}`)), "user-1")
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "Grace", body["name"])
	require.Equal(t, "ada@example.com", body["email"])

	stored := repo.byID["user-1"]
	require.Equal(t, "Grace", stored.Name)
	require.Equal(t, "ada@example.com", stored.Email)
}

func TestPutProfileInvalidEmail(t *testing.T) {
	router := newProfileRouter(newMemoryRepo(seedUser()))

	req := asUser(httptest.NewRequest(http.MethodPut, "/profile",
		strings.NewReader(`{"email":"nope"}`)), "user-1")
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
}
