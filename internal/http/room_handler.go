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

type roomService interface {
	CreateRoom(ctx context.Context, principal application.Principal, input application.RoomInput) (application.Room, error)
	UpdateRoom(ctx context.Context, principal application.Principal, roomID string, input application.RoomInput) (application.Room, error)
	ToggleRoomDisabled(ctx context.Context, principal application.Principal, roomID string) (application.Room, error)
	ListRooms(ctx context.Context, principal application.Principal, includeDisabled bool) ([]application.Room, error)
}

type blockedRangeService interface {
	CreateBlockedRange(ctx context.Context, principal application.Principal, input application.BlockedRangeInput) (application.BlockedRange, error)
	DeleteBlockedRange(ctx context.Context, principal application.Principal, id string) error
	ListBlockedRanges(ctx context.Context, roomID string, from, to time.Time) ([]application.BlockedRange, error)
}

// RoomHandler exposes the room catalog and blocked range management.
type RoomHandler struct {
	rooms     roomService
	blocked   blockedRangeService
	responder responder
}

// NewRoomHandler builds a handler backed by the given services.
func NewRoomHandler(rooms roomService, blocked blockedRangeService, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{rooms: rooms, blocked: blocked, responder: newResponder(logger)}
}

type roomRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type blockedRangeRequest struct {
	RoomID string  `json:"room_id"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Reason *string `json:"reason"`
}

// Create handles POST /rooms.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	room, err := h.rooms.CreateRoom(r.Context(), principal, application.RoomInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toRoomDTO(room))
}

// Update handles PUT /rooms/{id}.
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	roomID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	room, err := h.rooms.UpdateRoom(r.Context(), principal, roomID, application.RoomInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

// Toggle handles POST /rooms/{id}/toggle.
func (h *RoomHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	roomID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	room, err := h.rooms.ToggleRoomDisabled(r.Context(), principal, roomID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

// List handles GET /rooms.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	includeDisabled := r.URL.Query().Get("include_disabled") == "1"

	rooms, err := h.rooms.ListRooms(r.Context(), principal, includeDisabled)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string][]roomDTO{
		"rooms": toRoomDTOs(rooms),
	})
}

// ListBlockedRanges handles GET /rooms/{id}/blocked-ranges.
func (h *RoomHandler) ListBlockedRanges(w http.ResponseWriter, r *http.Request) {
	roomID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	query := r.URL.Query()
	from, err := time.Parse(time.RFC3339, query.Get("start"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRange)
		return
	}
	to, err := time.Parse(time.RFC3339, query.Get("end"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRange)
		return
	}

	ranges, err := h.blocked.ListBlockedRanges(r.Context(), roomID, from, to)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string][]blockedRangeDTO{
		"blocked_ranges": toBlockedRangeDTOs(ranges),
	})
}

// CreateBlockedRange handles POST /blocked-ranges.
func (h *RoomHandler) CreateBlockedRange(w http.ResponseWriter, r *http.Request) {
	var req blockedRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRange)
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRange)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	blocked, err := h.blocked.CreateBlockedRange(r.Context(), principal, application.BlockedRangeInput{
		RoomID: req.RoomID,
		Start:  start,
		End:    end,
		Reason: req.Reason,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, blockedRangeDTO{
		ID:     blocked.ID,
		RoomID: blocked.RoomID,
		Start:  blocked.Start.UTC().Format(time.RFC3339),
		End:    blocked.End.UTC().Format(time.RFC3339),
		Reason: blocked.Reason,
	})
}

// DeleteBlockedRange handles DELETE /blocked-ranges/{id}.
func (h *RoomHandler) DeleteBlockedRange(w http.ResponseWriter, r *http.Request) {
	id, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	if err := h.blocked.DeleteBlockedRange(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
