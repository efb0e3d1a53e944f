package http

import (
	"net/http"
	"strings"

	"github.com/mkrupp/tasktracker/internal/domain"
	context_ "github.com/mkrupp/tasktracker/internal/infra/context"
	"github.com/mkrupp/tasktracker/internal/infra/logging"
)

// AuthorizationHeader carries the bearer token.
const AuthorizationHeader = "Authorization"

// TokenVerifier verifies a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// AuthorizingMiddleware creates middleware that validates bearer tokens.
// Requests without a valid "Authorization: Bearer <token>" header are rejected with
// a uniform 401 before next runs; the cause is only logged.
// On success, the token subject is added to the request context.
func AuthorizingMiddleware(
	next http.Handler,
	verifier TokenVerifier,
	log logging.Logger,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get(AuthorizationHeader))
		if !ok {
			log.WarnContext(r.Context(), "rejected request", "error", domain.ErrNoAuthToken)
			WriteError(w, http.StatusUnauthorized, "unauthorized", nil)

			return
		}

		subject, err := verifier.Verify(token)
		if err != nil {
			log.WarnContext(r.Context(), "rejected request", "error", err)
			WriteError(w, http.StatusUnauthorized, "unauthorized", nil)

			return
		}

		authed := r.WithContext(context_.WithSubject(r.Context(), subject))
		next.ServeHTTP(w, authed)

		RecordRoute(authed)
	})
}

// bearerToken extracts the token of a "Bearer" authorization header.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}
