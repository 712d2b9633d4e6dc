package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/authline/authline/internal/platform/httpx"
	"github.com/authline/authline/internal/shared"
	"github.com/authline/authline/internal/store"
)

// ReadinessReporter exposes the store gateway state to the request gate.
type ReadinessReporter interface {
	Ready() bool
	State() store.State
}

// TokenVerifier checks a bearer token and returns the embedded user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireReady short-circuits store-touching routes while the store
// gateway is not connected. No store call is attempted in that case.
func RequireReady(gw ReadinessReporter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gw.Ready() {
				httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable",
					fmt.Sprintf("store not ready (state: %s)", gw.State()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireToken extracts and verifies the Authorization bearer token. A
// missing header or wrong scheme is treated as no token (401); a token
// that is present but invalid or expired is a bad request (400). On
// success the decoded user id is attached to the request context.
func RequireToken(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid or expired token")
				return
			}
			ctx := shared.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
