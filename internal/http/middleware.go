package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/logging"
)

// Identity resolution is an external collaborator: an upstream gateway
// authenticates the caller and forwards the resolved identity in these
// headers. This service trusts them and only parses and validates shape.
const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
	headerActingAs = "X-Acting-As"
)

// RequirePrincipal extracts the caller's identity headers into a Principal
// and rejects requests without a valid identity.
func RequirePrincipal(logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(headerUserID))
			if userID == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingCallerID)
				return
			}

			role, ok := application.ParseRole(strings.TrimSpace(r.Header.Get(headerUserRole)))
			if !ok {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errInvalidCallerRole)
				return
			}

			principal := application.Principal{
				UserID:         userID,
				Role:           role,
				ActingAsUserID: strings.TrimSpace(r.Header.Get(headerActingAs)),
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a request-scoped logger to the context and records
// request boundaries.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
