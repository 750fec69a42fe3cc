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

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	EditBooking(ctx context.Context, params application.EditBookingParams) (application.Booking, error)
	CancelBooking(ctx context.Context, principal application.Principal, bookingID string) error
	ListOccurrences(ctx context.Context, params application.ListOccurrencesParams) ([]application.Occurrence, error)
	History(ctx context.Context, principal application.Principal) ([]application.Booking, error)
}

// BookingHandler exposes the single-booking lifecycle and the merged
// occupancy view over HTTP.
type BookingHandler struct {
	service   bookingService
	responder responder
}

// NewBookingHandler builds a handler backed by the given service.
func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{service: service, responder: newResponder(logger)}
}

type createBookingRequest struct {
	Title  string  `json:"title"`
	Notes  *string `json:"notes"`
	RoomID string  `json:"room_id"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
}

type editBookingRequest struct {
	Title string  `json:"title"`
	Notes *string `json:"notes"`
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
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

	booking, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input: application.BookingInput{
			Title:  req.Title,
			Notes:  req.Notes,
			RoomID: req.RoomID,
			Start:  start,
			End:    end,
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toBookingDTO(booking))
}

// Edit handles PATCH /bookings/{id}.
func (h *BookingHandler) Edit(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req editBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	booking, err := h.service.EditBooking(r.Context(), application.EditBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Title:     req.Title,
		Notes:     req.Notes,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingDTO(booking))
}

// Cancel handles DELETE /bookings/{id}.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	if err := h.service.CancelBooking(r.Context(), principal, bookingID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// History handles GET /bookings/history.
func (h *BookingHandler) History(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	bookings, err := h.service.History(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string][]bookingDTO{
		"bookings": toBookingDTOs(bookings),
	})
}

// ListOccurrences handles GET /rooms/{id}/occurrences.
func (h *BookingHandler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	roomID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	query := r.URL.Query()
	start, err := time.Parse(time.RFC3339, query.Get("start"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRange)
		return
	}
	end, err := time.Parse(time.RFC3339, query.Get("end"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRange)
		return
	}

	occurrences, err := h.service.ListOccurrences(r.Context(), application.ListOccurrencesParams{
		RoomID:     roomID,
		RangeStart: start,
		RangeEnd:   end,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string][]occurrenceDTO{
		"occurrences": toOccurrenceDTOs(occurrences),
	})
}
