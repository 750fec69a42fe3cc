package application

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/roombooking/internal/conflict"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/recurrence"
	"github.com/example/roombooking/internal/timegrid"
)

const (
	maxTitleLength = 200
	maxNotesLength = 1000

	// maxOccurrenceRangeDays bounds a single occupancy query so rule
	// expansion cannot be asked to walk an unbounded window.
	maxOccurrenceRangeDays = 366
)

// BookingService implements the single-booking lifecycle and the merged
// occupancy view for rooms.
type BookingService struct {
	bookings    persistence.BookingRepository
	rules       persistence.RecurringRuleRepository
	blocked     persistence.BlockedRangeRepository
	rooms       persistence.RoomRepository
	settings    persistence.SettingsRepository
	cache       *OccurrenceCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for booking operations. The cache is
// optional; pass nil to disable occupancy-view caching.
func NewBookingService(
	bookings persistence.BookingRepository,
	rules persistence.RecurringRuleRepository,
	blocked persistence.BlockedRangeRepository,
	rooms persistence.RoomRepository,
	settings persistence.SettingsRepository,
	cache *OccurrenceCache,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		bookings:    bookings,
		rules:       rules,
		blocked:     blocked,
		rooms:       rooms,
		settings:    settings,
		cache:       cache,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateBooking validates a candidate interval against the booking grid, the
// caller's quota and the room's existing occupancy before persisting it.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (Booking, error) {
	principal := params.Principal
	input := params.Input

	if principal.Role == RoleViewer {
		return Booking{}, NewError(KindRoleNotPermitted, "viewers cannot create bookings")
	}

	if err := validateBookingInput(input); err != nil {
		return Booking{}, err
	}

	if err := s.ensureRoomBookable(ctx, input.RoomID); err != nil {
		return Booking{}, err
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return Booking{}, err
	}

	now := s.now()
	if err := validateGrid(input.Start, input.End, settings, now); err != nil {
		return Booking{}, err
	}

	ownerID := principal.EffectiveUserID()
	active, err := s.bookings.CountActiveBookings(ctx, ownerID, now)
	if err != nil {
		return Booking{}, s.unexpected(ctx, "count active bookings", err)
	}
	if active >= settings.MaxActiveBookings {
		return Booking{}, NewLimitError(KindQuotaExceeded, settings.MaxActiveBookings,
			"maximum %d active bookings allowed", settings.MaxActiveBookings)
	}

	if err := s.checkConflicts(ctx, input.RoomID, conflict.Candidate{Start: input.Start, End: input.End}); err != nil {
		return Booking{}, err
	}

	booking := persistence.Booking{
		ID:        s.idGenerator(),
		Title:     strings.TrimSpace(input.Title),
		Notes:     input.Notes,
		RoomID:    input.RoomID,
		OwnerID:   ownerID,
		Start:     input.Start,
		End:       input.End,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.bookings.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			// A concurrent create claimed the identical slot between the
			// read-based conflict check and this write.
			return Booking{}, NewError(KindTimeConflict, "time slot conflict: another booking overlaps this time")
		}
		return Booking{}, s.unexpected(ctx, "create booking", err)
	}

	s.cache.InvalidateRoom(input.RoomID)

	return toBooking(booking), nil
}

// EditBooking updates a booking's title and notes. Times are immutable after
// creation, so no conflict re-check runs.
func (s *BookingService) EditBooking(ctx context.Context, params EditBookingParams) (Booking, error) {
	stored, err := s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		return Booking{}, s.mapLookupError(ctx, "booking", err)
	}

	principal := params.Principal
	if stored.OwnerID != principal.UserID && !principal.IsAdmin() {
		return Booking{}, NewError(KindNotOwner, "can only edit your own bookings")
	}

	if !stored.Start.After(s.now()) {
		return Booking{}, NewError(KindAlreadyStarted, "cannot edit a booking that has already started")
	}

	if err := validateTitleNotes(params.Title, params.Notes); err != nil {
		return Booking{}, err
	}

	stored.Title = strings.TrimSpace(params.Title)
	stored.Notes = params.Notes
	stored.UpdatedAt = s.now()

	if err := s.bookings.UpdateBooking(ctx, stored); err != nil {
		return Booking{}, s.mapLookupError(ctx, "booking", err)
	}

	return toBooking(stored), nil
}

// CancelBooking flags a booking as cancelled. The record is never deleted.
// Cancelling an already-cancelled booking is a no-op.
func (s *BookingService) CancelBooking(ctx context.Context, principal Principal, bookingID string) error {
	stored, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return s.mapLookupError(ctx, "booking", err)
	}

	if stored.OwnerID != principal.UserID && !principal.IsAdmin() {
		return NewError(KindNotOwner, "can only cancel your own bookings")
	}

	if stored.Cancelled {
		return nil
	}

	if !stored.Start.After(s.now()) {
		return NewError(KindAlreadyStarted, "cannot cancel a booking that has already started")
	}

	stored.Cancelled = true
	stored.UpdatedAt = s.now()

	if err := s.bookings.UpdateBooking(ctx, stored); err != nil {
		return s.mapLookupError(ctx, "booking", err)
	}

	s.cache.InvalidateRoom(stored.RoomID)

	return nil
}

// ListOccurrences returns the room's occupancy over [RangeStart, RangeEnd):
// stored single bookings merged with virtual recurring occurrences, ordered
// by start time.
func (s *BookingService) ListOccurrences(ctx context.Context, params ListOccurrencesParams) ([]Occurrence, error) {
	if params.RoomID == "" {
		return nil, NewError(KindInvalidInput, "room id is required")
	}
	if !params.RangeEnd.After(params.RangeStart) {
		return nil, NewError(KindInvalidInput, "range end must be after range start")
	}
	if params.RangeEnd.Sub(params.RangeStart) > maxOccurrenceRangeDays*24*time.Hour {
		return nil, NewLimitError(KindInvalidInput, maxOccurrenceRangeDays,
			"range cannot exceed %d days", maxOccurrenceRangeDays)
	}

	if _, err := s.rooms.GetRoom(ctx, params.RoomID); err != nil {
		return nil, s.mapLookupError(ctx, "room", err)
	}

	key := occurrenceCacheKey(params.RoomID, params.RangeStart, params.RangeEnd)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	bookings, err := s.bookings.ListRoomBookings(ctx, params.RoomID, params.RangeStart, params.RangeEnd)
	if err != nil {
		return nil, s.unexpected(ctx, "list room bookings", err)
	}

	rules, err := s.rules.ListRoomRules(ctx, params.RoomID)
	if err != nil {
		return nil, s.unexpected(ctx, "list room rules", err)
	}

	expanded, err := recurrence.Expand(toRecurrenceRules(rules), params.RangeStart, params.RangeEnd)
	if err != nil {
		return nil, s.unexpected(ctx, "expand recurring rules", err)
	}

	occurrences := make([]Occurrence, 0, len(bookings)+len(expanded))
	for _, b := range bookings {
		booking := toBooking(b)
		occurrences = append(occurrences, Occurrence{
			Kind:    OccurrenceSingle,
			Title:   booking.Title,
			Start:   booking.Start,
			End:     booking.End,
			Booking: &booking,
		})
	}
	for _, o := range expanded {
		occurrences = append(occurrences, Occurrence{
			Kind:   OccurrenceRecurring,
			Title:  o.Title,
			Start:  o.Start,
			End:    o.End,
			RuleID: o.RuleID,
			Date:   o.Date,
		})
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		if occurrences[i].Start.Equal(occurrences[j].Start) {
			return occurrences[i].Kind == OccurrenceSingle && occurrences[j].Kind == OccurrenceRecurring
		}
		return occurrences[i].Start.Before(occurrences[j].Start)
	})

	s.cache.Set(key, occurrences)

	return occurrences, nil
}

// History returns the caller's bookings, cancelled ones included, newest
// start first.
func (s *BookingService) History(ctx context.Context, principal Principal) ([]Booking, error) {
	stored, err := s.bookings.ListUserBookings(ctx, principal.EffectiveUserID())
	if err != nil {
		return nil, s.unexpected(ctx, "list user bookings", err)
	}

	bookings := make([]Booking, 0, len(stored))
	for _, b := range stored {
		bookings = append(bookings, toBooking(b))
	}
	return bookings, nil
}

func (s *BookingService) ensureRoomBookable(ctx context.Context, roomID string) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return s.mapLookupError(ctx, "room", err)
	}
	if room.Disabled {
		return NewError(KindNotFound, "room is disabled")
	}
	return nil
}

func (s *BookingService) loadSettings(ctx context.Context) (Settings, error) {
	stored, err := s.settings.LoadSettings(ctx)
	if err != nil {
		return Settings{}, s.unexpected(ctx, "load settings", err)
	}
	return toSettings(stored), nil
}

func (s *BookingService) checkConflicts(ctx context.Context, roomID string, candidate conflict.Candidate) error {
	bookings, err := s.bookings.ListRoomBookings(ctx, roomID, candidate.Start, candidate.End)
	if err != nil {
		return s.unexpected(ctx, "list room bookings", err)
	}

	blocked, err := s.blocked.ListRoomBlockedRanges(ctx, roomID, candidate.Start, candidate.End)
	if err != nil {
		return s.unexpected(ctx, "list blocked ranges", err)
	}

	rules, err := s.rules.ListRoomRules(ctx, roomID)
	if err != nil {
		return s.unexpected(ctx, "list room rules", err)
	}

	hit := conflict.Detect(candidate, toConflictBookings(bookings), toConflictBlocked(blocked), toConflictRules(rules))
	if hit == nil {
		return nil
	}

	s.logger.InfoContext(ctx, "booking conflict detected",
		"room_id", roomID, "source", string(hit.Source), "with", hit.ID)

	if hit.Source == conflict.SourceBlocked {
		return NewError(KindTimeConflict, "this time range is blocked")
	}
	return NewError(KindTimeConflict, "time slot conflict: another booking overlaps this time")
}

func (s *BookingService) mapLookupError(ctx context.Context, resource string, err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return NewError(KindNotFound, "%s not found", resource)
	}
	return s.unexpected(ctx, "load "+resource, err)
}

func (s *BookingService) unexpected(ctx context.Context, operation string, err error) error {
	s.logger.ErrorContext(ctx, "storage operation failed", "operation", operation, "error", err)
	return WrapUnexpected(err)
}

func validateBookingInput(input BookingInput) error {
	if err := validateTitleNotes(input.Title, input.Notes); err != nil {
		return err
	}
	if input.RoomID == "" {
		return NewError(KindInvalidInput, "room id is required")
	}
	if input.Start.IsZero() || input.End.IsZero() {
		return NewError(KindInvalidInput, "start and end are required")
	}
	if !input.End.After(input.Start) {
		return NewError(KindInvalidInput, "end time must be after start time")
	}
	return nil
}

func validateTitleNotes(title string, notes *string) error {
	if strings.TrimSpace(title) == "" {
		return NewError(KindInvalidInput, "title is required")
	}
	if len(title) > maxTitleLength {
		return NewLimitError(KindInvalidInput, maxTitleLength, "title cannot exceed %d characters", maxTitleLength)
	}
	if notes != nil && len(*notes) > maxNotesLength {
		return NewLimitError(KindInvalidInput, maxNotesLength, "notes cannot exceed %d characters", maxNotesLength)
	}
	return nil
}

func validateGrid(start, end time.Time, settings Settings, now time.Time) error {
	limits := timegrid.Limits{
		GranularityMinutes: settings.GranularityMinutes,
		MaxDurationHours:   settings.MaxBookingDurationHours,
		MaxAdvanceDays:     settings.MaxAdvanceDays,
	}

	switch err := timegrid.Validate(start, end, limits, now); {
	case err == nil:
		return nil
	case errors.Is(err, timegrid.ErrMisaligned):
		return NewLimitError(KindMisalignedTime, settings.GranularityMinutes,
			"times must align to %d-minute increments", settings.GranularityMinutes)
	case errors.Is(err, timegrid.ErrDurationExceeded):
		return NewLimitError(KindDurationExceeded, settings.MaxBookingDurationHours,
			"booking duration cannot exceed %d hours", settings.MaxBookingDurationHours)
	case errors.Is(err, timegrid.ErrTooFarInAdvance):
		return NewLimitError(KindTooFarInAdvance, settings.MaxAdvanceDays,
			"cannot book more than %d days in advance", settings.MaxAdvanceDays)
	case errors.Is(err, timegrid.ErrInThePast):
		return NewError(KindInThePast, "cannot book in the past")
	default:
		return WrapUnexpected(err)
	}
}

func occurrenceCacheKey(roomID string, from, to time.Time) string {
	return roomID + "|" + from.UTC().Format(time.RFC3339) + "|" + to.UTC().Format(time.RFC3339)
}
