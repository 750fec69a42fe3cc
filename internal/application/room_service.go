package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

const maxRoomNameLength = 100

// RoomService manages the room catalog. All writes are admin-only; disabling
// a room removes it from new-booking flows while keeping its history.
type RoomService struct {
	rooms       persistence.RoomRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService wires dependencies for room catalog operations.
func NewRoomService(rooms persistence.RoomRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomService{rooms: rooms, idGenerator: idGenerator, now: now, logger: logger}
}

// CreateRoom adds a room to the catalog.
func (s *RoomService) CreateRoom(ctx context.Context, principal Principal, input RoomInput) (Room, error) {
	if !principal.IsAdmin() {
		return Room{}, NewError(KindRoleNotPermitted, "only administrators can manage rooms")
	}
	if err := validateRoomInput(input); err != nil {
		return Room{}, err
	}

	now := s.now()
	room := persistence.Room{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.rooms.CreateRoom(ctx, room); err != nil {
		return Room{}, s.unexpected(ctx, "create room", err)
	}

	return toRoom(room), nil
}

// UpdateRoom changes a room's name and description.
func (s *RoomService) UpdateRoom(ctx context.Context, principal Principal, roomID string, input RoomInput) (Room, error) {
	if !principal.IsAdmin() {
		return Room{}, NewError(KindRoleNotPermitted, "only administrators can manage rooms")
	}
	if err := validateRoomInput(input); err != nil {
		return Room{}, err
	}

	stored, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, s.mapLookupError(ctx, err)
	}

	stored.Name = strings.TrimSpace(input.Name)
	stored.Description = input.Description
	stored.UpdatedAt = s.now()

	if err := s.rooms.UpdateRoom(ctx, stored); err != nil {
		return Room{}, s.mapLookupError(ctx, err)
	}

	return toRoom(stored), nil
}

// ToggleRoomDisabled flips a room's disabled flag and returns the new state.
func (s *RoomService) ToggleRoomDisabled(ctx context.Context, principal Principal, roomID string) (Room, error) {
	if !principal.IsAdmin() {
		return Room{}, NewError(KindRoleNotPermitted, "only administrators can manage rooms")
	}

	stored, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, s.mapLookupError(ctx, err)
	}

	stored.Disabled = !stored.Disabled
	stored.UpdatedAt = s.now()

	if err := s.rooms.UpdateRoom(ctx, stored); err != nil {
		return Room{}, s.mapLookupError(ctx, err)
	}

	return toRoom(stored), nil
}

// ListRooms returns catalog entries. Disabled rooms are only included for
// admins that ask for them.
func (s *RoomService) ListRooms(ctx context.Context, principal Principal, includeDisabled bool) ([]Room, error) {
	if includeDisabled && !principal.IsAdmin() {
		includeDisabled = false
	}

	stored, err := s.rooms.ListRooms(ctx, includeDisabled)
	if err != nil {
		return nil, s.unexpected(ctx, "list rooms", err)
	}

	rooms := make([]Room, 0, len(stored))
	for _, r := range stored {
		rooms = append(rooms, toRoom(r))
	}
	return rooms, nil
}

func (s *RoomService) mapLookupError(ctx context.Context, err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return NewError(KindNotFound, "room not found")
	}
	return s.unexpected(ctx, "load room", err)
}

func (s *RoomService) unexpected(ctx context.Context, operation string, err error) error {
	s.logger.ErrorContext(ctx, "storage operation failed", "operation", operation, "error", err)
	return WrapUnexpected(err)
}

func validateRoomInput(input RoomInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return NewError(KindInvalidInput, "name is required")
	}
	if len(input.Name) > maxRoomNameLength {
		return NewLimitError(KindInvalidInput, maxRoomNameLength, "name cannot exceed %d characters", maxRoomNameLength)
	}
	return nil
}
