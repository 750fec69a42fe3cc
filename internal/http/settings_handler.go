package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/roombooking/internal/application"
)

type settingsService interface {
	GetSettings(ctx context.Context) (application.Settings, error)
	UpdateSettings(ctx context.Context, principal application.Principal, input application.Settings) (application.Settings, error)
}

// SettingsHandler exposes the configuration snapshot over HTTP.
type SettingsHandler struct {
	service   settingsService
	responder responder
}

// NewSettingsHandler builds a handler backed by the given service.
func NewSettingsHandler(service settingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, responder: newResponder(logger)}
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSettingsDTO(settings))
}

// Update handles PUT /settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	settings, err := h.service.UpdateSettings(r.Context(), principal, req.toSettings())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSettingsDTO(settings))
}
