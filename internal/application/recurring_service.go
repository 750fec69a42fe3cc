package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roombooking/internal/conflict"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/recurrence"
)

// RecurringService manages weekly recurring rules: creation, per-occurrence
// cancellation via exception dates, and whole-series tombstoning.
type RecurringService struct {
	rules       persistence.RecurringRuleRepository
	rooms       persistence.RoomRepository
	cache       *OccurrenceCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRecurringService wires dependencies for recurring rule operations.
func NewRecurringService(
	rules persistence.RecurringRuleRepository,
	rooms persistence.RoomRepository,
	cache *OccurrenceCache,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *RecurringService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurringService{
		rules:       rules,
		rooms:       rooms,
		cache:       cache,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateRule persists a new weekly rule after checking it against the room's
// other active rules. Only admins may create rules.
//
// New rules are deliberately not checked against pre-existing single
// bookings; see DESIGN.md for the trade-off.
func (s *RecurringService) CreateRule(ctx context.Context, params CreateRuleParams) (RecurringRule, error) {
	principal := params.Principal
	input := params.Input

	if !principal.IsAdmin() {
		return RecurringRule{}, NewError(KindRoleNotPermitted, "only administrators can create recurring rules")
	}

	if err := validateRuleInput(input); err != nil {
		return RecurringRule{}, err
	}

	room, err := s.rooms.GetRoom(ctx, input.RoomID)
	if err != nil {
		return RecurringRule{}, s.mapLookupError(ctx, "room", err)
	}
	if room.Disabled {
		return RecurringRule{}, NewError(KindNotFound, "room is disabled")
	}

	existing, err := s.rules.ListRoomRules(ctx, input.RoomID)
	if err != nil {
		return RecurringRule{}, s.unexpected(ctx, "list room rules", err)
	}

	candidate := conflict.Rule{
		Weekday:     input.Weekday,
		StartMinute: input.StartMinute,
		EndMinute:   input.EndMinute,
	}
	for _, other := range toConflictRules(existing) {
		if conflict.RulesOverlap(candidate, other) {
			s.logger.InfoContext(ctx, "recurring rule conflict detected",
				"room_id", input.RoomID, "with", other.ID)
			return RecurringRule{}, NewError(KindTimeConflict, "time slot conflict: an existing recurring rule overlaps this window")
		}
	}

	now := s.now()
	rule := persistence.RecurringRule{
		ID:          s.idGenerator(),
		Title:       strings.TrimSpace(input.Title),
		Notes:       input.Notes,
		RoomID:      input.RoomID,
		OwnerID:     principal.EffectiveUserID(),
		Weekday:     input.Weekday,
		StartMinute: input.StartMinute,
		EndMinute:   input.EndMinute,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.rules.CreateRule(ctx, rule); err != nil {
		return RecurringRule{}, s.unexpected(ctx, "create rule", err)
	}

	s.cache.InvalidateRoom(input.RoomID)

	return toRecurringRule(rule), nil
}

// CancelOccurrence suppresses a single dated occurrence by recording an
// exception date on the rule. The operation is idempotent: cancelling the
// same date twice leaves the exception list unchanged.
func (s *RecurringService) CancelOccurrence(ctx context.Context, principal Principal, ruleID, date string) error {
	if !principal.IsAdmin() {
		return NewError(KindRoleNotPermitted, "only administrators can cancel recurring occurrences")
	}

	if _, err := recurrence.ParseDate(date); err != nil {
		return NewError(KindInvalidInput, "date must be formatted yyyy-mm-dd")
	}

	rule, err := s.rules.GetRule(ctx, ruleID)
	if err != nil {
		return s.mapLookupError(ctx, "recurring rule", err)
	}
	if rule.Cancelled {
		return NewError(KindNotFound, "recurring rule is cancelled")
	}

	if err := s.rules.AddException(ctx, ruleID, date, s.now()); err != nil {
		return s.unexpected(ctx, "add exception", err)
	}

	s.cache.InvalidateRoom(rule.RoomID)

	return nil
}

// CancelSeries tombstones a rule. Future expansions produce no occurrences
// for it; single bookings created independently are unaffected. The state is
// terminal: there is no un-cancel.
func (s *RecurringService) CancelSeries(ctx context.Context, principal Principal, ruleID string) error {
	if !principal.IsAdmin() {
		return NewError(KindRoleNotPermitted, "only administrators can cancel recurring series")
	}

	rule, err := s.rules.GetRule(ctx, ruleID)
	if err != nil {
		return s.mapLookupError(ctx, "recurring rule", err)
	}
	if rule.Cancelled {
		return nil
	}

	if err := s.rules.CancelRule(ctx, ruleID, s.now()); err != nil {
		return s.unexpected(ctx, "cancel rule", err)
	}

	s.cache.InvalidateRoom(rule.RoomID)

	return nil
}

func (s *RecurringService) mapLookupError(ctx context.Context, resource string, err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return NewError(KindNotFound, "%s not found", resource)
	}
	return s.unexpected(ctx, "load "+resource, err)
}

func (s *RecurringService) unexpected(ctx context.Context, operation string, err error) error {
	s.logger.ErrorContext(ctx, "storage operation failed", "operation", operation, "error", err)
	return WrapUnexpected(err)
}

func validateRuleInput(input RuleInput) error {
	if err := validateTitleNotes(input.Title, input.Notes); err != nil {
		return err
	}
	if input.RoomID == "" {
		return NewError(KindInvalidInput, "room id is required")
	}
	if input.Weekday < time.Sunday || input.Weekday > time.Saturday {
		return NewError(KindInvalidInput, "weekday must be between 0 and 6")
	}
	if err := recurrence.ValidateMinutes(input.StartMinute, input.EndMinute); err != nil {
		return NewError(KindInvalidInput, "end minute must be after start minute within one day")
	}
	return nil
}
