package middleware

import (
	"canchas/pkg/auth"
	apperrors "canchas/pkg/errors"
	httputil "canchas/pkg/http"
	"canchas/pkg/logger"
	"net/http"
	"strings"
)

type TokenVerifier interface {
	Verify(token string) (auth.Actor, error)
}

// Authentication resolves a Bearer token into an actor on the request
// context. Requests without a token continue anonymously and the handlers
// decide whether an actor is required; a present but invalid token is a 401.
func Authentication(verifier TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				rejectUnauthorized(w, log, r, "malformed authorization header")
				return
			}

			actor, err := verifier.Verify(strings.TrimSpace(raw))
			if err != nil {
				rejectUnauthorized(w, log, r, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

func rejectUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Authentication failed",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
}
