package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/logging"
)

var (
	errBadRequestBody     = errors.New("invalid request body")
	errInvalidResourceID  = errors.New("invalid resource id")
	errInvalidRange       = errors.New("start and end query parameters must be RFC 3339 timestamps")
	errMissingCallerID    = errors.New("caller identity is required")
	errInvalidCallerRole  = errors.New("caller role must be one of ADMIN, MEMBER, VIEWER")
	errInvalidOccurrences = errors.New("occurrence path must be /recurring-rules/{id}/occurrences/{date}")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
	}
	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps the application error taxonomy onto HTTP statuses.
// Unexpected faults reach the caller as a generic 500; the cause was already
// logged by the service layer.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := application.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case application.KindMisalignedTime,
		application.KindDurationExceeded,
		application.KindTooFarInAdvance,
		application.KindInThePast,
		application.KindQuotaExceeded,
		application.KindInvalidInput:
		status = http.StatusUnprocessableEntity
	case application.KindTimeConflict, application.KindAlreadyStarted:
		status = http.StatusConflict
	case application.KindRoleNotPermitted, application.KindNotOwner:
		status = http.StatusForbidden
	case application.KindNotFound:
		status = http.StatusNotFound
	}

	if kind == application.KindUnexpected {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err)
		r.writeJSON(ctx, w, status, errorResponse{
			ErrorCode: string(kind),
			Message:   "an internal error occurred",
		})
		return
	}

	payload := errorResponse{ErrorCode: string(kind), Message: err.Error()}
	var appErr *application.Error
	if errors.As(err, &appErr) && appErr.Limit > 0 {
		payload.Limit = appErr.Limit
	}
	r.writeJSON(ctx, w, status, payload)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message"`
	Limit     int    `json:"limit,omitempty"`
}
