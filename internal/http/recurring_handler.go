package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/roombooking/internal/application"
)

type recurringService interface {
	CreateRule(ctx context.Context, params application.CreateRuleParams) (application.RecurringRule, error)
	CancelOccurrence(ctx context.Context, principal application.Principal, ruleID, date string) error
	CancelSeries(ctx context.Context, principal application.Principal, ruleID string) error
}

// RecurringHandler exposes recurring rule management over HTTP.
type RecurringHandler struct {
	service   recurringService
	responder responder
}

// NewRecurringHandler builds a handler backed by the given service.
func NewRecurringHandler(service recurringService, logger *slog.Logger) *RecurringHandler {
	return &RecurringHandler{service: service, responder: newResponder(logger)}
}

type createRuleRequest struct {
	Title       string  `json:"title"`
	Notes       *string `json:"notes"`
	RoomID      string  `json:"room_id"`
	Weekday     int     `json:"weekday"`
	StartMinute int     `json:"start_minute"`
	EndMinute   int     `json:"end_minute"`
}

// Create handles POST /recurring-rules.
func (h *RecurringHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	rule, err := h.service.CreateRule(r.Context(), application.CreateRuleParams{
		Principal: principal,
		Input: application.RuleInput{
			Title:       req.Title,
			Notes:       req.Notes,
			RoomID:      req.RoomID,
			Weekday:     time.Weekday(req.Weekday),
			StartMinute: req.StartMinute,
			EndMinute:   req.EndMinute,
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toRuleDTO(rule))
}

// CancelSeries handles DELETE /recurring-rules/{id}.
func (h *RecurringHandler) CancelSeries(w http.ResponseWriter, r *http.Request) {
	ruleID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ruleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	if err := h.service.CancelSeries(r.Context(), principal, ruleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// CancelOccurrence handles DELETE /recurring-rules/{id}/occurrences/{date}.
func (h *RecurringHandler) CancelOccurrence(w http.ResponseWriter, r *http.Request, ruleID, date string) {
	if strings.TrimSpace(ruleID) == "" || strings.TrimSpace(date) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOccurrences)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	if err := h.service.CancelOccurrence(r.Context(), principal, ruleID, date); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
