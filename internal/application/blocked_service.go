package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

// BlockedRangeService manages administrator-defined blocked time ranges.
// Blocked ranges participate in conflict checking as read-only occupancy.
type BlockedRangeService struct {
	blocked     persistence.BlockedRangeRepository
	rooms       persistence.RoomRepository
	cache       *OccurrenceCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBlockedRangeService wires dependencies for blocked range operations.
func NewBlockedRangeService(
	blocked persistence.BlockedRangeRepository,
	rooms persistence.RoomRepository,
	cache *OccurrenceCache,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *BlockedRangeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BlockedRangeService{
		blocked:     blocked,
		rooms:       rooms,
		cache:       cache,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateBlockedRange marks room time as unavailable.
func (s *BlockedRangeService) CreateBlockedRange(ctx context.Context, principal Principal, input BlockedRangeInput) (BlockedRange, error) {
	if !principal.IsAdmin() {
		return BlockedRange{}, NewError(KindRoleNotPermitted, "only administrators can manage blocked ranges")
	}
	if input.RoomID == "" {
		return BlockedRange{}, NewError(KindInvalidInput, "room id is required")
	}
	if input.Start.IsZero() || input.End.IsZero() || !input.End.After(input.Start) {
		return BlockedRange{}, NewError(KindInvalidInput, "end time must be after start time")
	}

	if _, err := s.rooms.GetRoom(ctx, input.RoomID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return BlockedRange{}, NewError(KindNotFound, "room not found")
		}
		return BlockedRange{}, s.unexpected(ctx, "load room", err)
	}

	blocked := persistence.BlockedRange{
		ID:        s.idGenerator(),
		RoomID:    input.RoomID,
		Start:     input.Start,
		End:       input.End,
		Reason:    input.Reason,
		CreatedAt: s.now(),
	}

	if err := s.blocked.CreateBlockedRange(ctx, blocked); err != nil {
		return BlockedRange{}, s.unexpected(ctx, "create blocked range", err)
	}

	s.cache.InvalidateRoom(input.RoomID)

	return toBlockedRange(blocked), nil
}

// DeleteBlockedRange removes a blocked range. Unlike bookings and rules,
// blocked ranges are plain operational data and may be deleted.
func (s *BlockedRangeService) DeleteBlockedRange(ctx context.Context, principal Principal, id string) error {
	if !principal.IsAdmin() {
		return NewError(KindRoleNotPermitted, "only administrators can manage blocked ranges")
	}

	if err := s.blocked.DeleteBlockedRange(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return NewError(KindNotFound, "blocked range not found")
		}
		return s.unexpected(ctx, "delete blocked range", err)
	}

	return nil
}

// ListBlockedRanges returns the room's blocked ranges overlapping [from, to).
func (s *BlockedRangeService) ListBlockedRanges(ctx context.Context, roomID string, from, to time.Time) ([]BlockedRange, error) {
	if roomID == "" {
		return nil, NewError(KindInvalidInput, "room id is required")
	}
	if !to.After(from) {
		return nil, NewError(KindInvalidInput, "range end must be after range start")
	}

	stored, err := s.blocked.ListRoomBlockedRanges(ctx, roomID, from, to)
	if err != nil {
		return nil, s.unexpected(ctx, "list blocked ranges", err)
	}

	ranges := make([]BlockedRange, 0, len(stored))
	for _, b := range stored {
		ranges = append(ranges, toBlockedRange(b))
	}
	return ranges, nil
}

func (s *BlockedRangeService) unexpected(ctx context.Context, operation string, err error) error {
	s.logger.ErrorContext(ctx, "storage operation failed", "operation", operation, "error", err)
	return WrapUnexpected(err)
}
