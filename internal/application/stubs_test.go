package application

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/example/roombooking/internal/conflict"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/testfixtures"
)

type roomRepoStub struct {
	rooms map[string]persistence.Room
	err   error
}

func newRoomRepoStub(rooms ...persistence.Room) *roomRepoStub {
	stub := &roomRepoStub{rooms: make(map[string]persistence.Room)}
	for _, room := range rooms {
		stub.rooms[room.ID] = room
	}
	return stub
}

func (s *roomRepoStub) CreateRoom(ctx context.Context, room persistence.Room) error {
	if s.err != nil {
		return s.err
	}
	s.rooms[room.ID] = room
	return nil
}

func (s *roomRepoStub) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.rooms[room.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.rooms[room.ID] = room
	return nil
}

func (s *roomRepoStub) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if s.err != nil {
		return persistence.Room{}, s.err
	}
	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (s *roomRepoStub) ListRooms(ctx context.Context, includeDisabled bool) ([]persistence.Room, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]persistence.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		if room.Disabled && !includeDisabled {
			continue
		}
		out = append(out, room)
	}
	return out, nil
}

type bookingRepoStub struct {
	bookings  map[string]persistence.Booking
	createErr error
	err       error
}

func newBookingRepoStub(bookings ...persistence.Booking) *bookingRepoStub {
	stub := &bookingRepoStub{bookings: make(map[string]persistence.Booking)}
	for _, b := range bookings {
		stub.bookings[b.ID] = b
	}
	return stub
}

func (s *bookingRepoStub) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.err != nil {
		return s.err
	}
	s.bookings[booking.ID] = booking
	return nil
}

func (s *bookingRepoStub) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if s.err != nil {
		return persistence.Booking{}, s.err
	}
	booking, ok := s.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return booking, nil
}

func (s *bookingRepoStub) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.bookings[booking.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.bookings[booking.ID] = booking
	return nil
}

func (s *bookingRepoStub) ListRoomBookings(ctx context.Context, roomID string, from, to time.Time) ([]persistence.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]persistence.Booking, 0)
	for _, b := range s.bookings {
		if b.RoomID != roomID || b.Cancelled {
			continue
		}
		if conflict.Overlaps(b.Start, b.End, from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *bookingRepoStub) ListUserBookings(ctx context.Context, userID string) ([]persistence.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]persistence.Booking, 0)
	for _, b := range s.bookings {
		if b.OwnerID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *bookingRepoStub) CountActiveBookings(ctx context.Context, userID string, reference time.Time) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	count := 0
	for _, b := range s.bookings {
		if b.OwnerID == userID && !b.Cancelled && b.End.After(reference) {
			count++
		}
	}
	return count, nil
}

type ruleRepoStub struct {
	rules map[string]persistence.RecurringRule
	err   error
}

func newRuleRepoStub(rules ...persistence.RecurringRule) *ruleRepoStub {
	stub := &ruleRepoStub{rules: make(map[string]persistence.RecurringRule)}
	for _, r := range rules {
		stub.rules[r.ID] = r
	}
	return stub
}

func (s *ruleRepoStub) CreateRule(ctx context.Context, rule persistence.RecurringRule) error {
	if s.err != nil {
		return s.err
	}
	s.rules[rule.ID] = rule
	return nil
}

func (s *ruleRepoStub) GetRule(ctx context.Context, id string) (persistence.RecurringRule, error) {
	if s.err != nil {
		return persistence.RecurringRule{}, s.err
	}
	rule, ok := s.rules[id]
	if !ok {
		return persistence.RecurringRule{}, persistence.ErrNotFound
	}
	return rule, nil
}

func (s *ruleRepoStub) ListRoomRules(ctx context.Context, roomID string) ([]persistence.RecurringRule, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]persistence.RecurringRule, 0)
	for _, r := range s.rules {
		if r.RoomID == roomID && !r.Cancelled {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *ruleRepoStub) AddException(ctx context.Context, ruleID, date string, at time.Time) error {
	if s.err != nil {
		return s.err
	}
	rule, ok := s.rules[ruleID]
	if !ok {
		return persistence.ErrNotFound
	}
	for _, d := range rule.ExceptionDates {
		if d == date {
			return nil
		}
	}
	rule.ExceptionDates = append(rule.ExceptionDates, date)
	rule.UpdatedAt = at
	s.rules[ruleID] = rule
	return nil
}

func (s *ruleRepoStub) CancelRule(ctx context.Context, ruleID string, at time.Time) error {
	if s.err != nil {
		return s.err
	}
	rule, ok := s.rules[ruleID]
	if !ok {
		return persistence.ErrNotFound
	}
	rule.Cancelled = true
	rule.UpdatedAt = at
	s.rules[ruleID] = rule
	return nil
}

type blockedRepoStub struct {
	ranges map[string]persistence.BlockedRange
	err    error
}

func newBlockedRepoStub(ranges ...persistence.BlockedRange) *blockedRepoStub {
	stub := &blockedRepoStub{ranges: make(map[string]persistence.BlockedRange)}
	for _, r := range ranges {
		stub.ranges[r.ID] = r
	}
	return stub
}

func (s *blockedRepoStub) CreateBlockedRange(ctx context.Context, blocked persistence.BlockedRange) error {
	if s.err != nil {
		return s.err
	}
	s.ranges[blocked.ID] = blocked
	return nil
}

func (s *blockedRepoStub) DeleteBlockedRange(ctx context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.ranges[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.ranges, id)
	return nil
}

func (s *blockedRepoStub) ListRoomBlockedRanges(ctx context.Context, roomID string, from, to time.Time) ([]persistence.BlockedRange, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]persistence.BlockedRange, 0)
	for _, r := range s.ranges {
		if r.RoomID != roomID {
			continue
		}
		if conflict.Overlaps(r.Start, r.End, from, to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type settingsRepoStub struct {
	settings persistence.Settings
	saved    *persistence.Settings
	err      error
}

func defaultSettingsStub() *settingsRepoStub {
	return &settingsRepoStub{settings: persistence.Settings{
		GranularityMinutes:      30,
		MaxAdvanceDays:          14,
		MaxBookingDurationHours: 4,
		MaxActiveBookings:       3,
	}}
}

func (s *settingsRepoStub) LoadSettings(ctx context.Context) (persistence.Settings, error) {
	if s.err != nil {
		return persistence.Settings{}, s.err
	}
	return s.settings, nil
}

func (s *settingsRepoStub) SaveSettings(ctx context.Context, settings persistence.Settings) error {
	if s.err != nil {
		return s.err
	}
	s.settings = settings
	s.saved = &settings
	return nil
}

func (s *settingsRepoStub) SeedSettings(ctx context.Context, settings persistence.Settings) error {
	return nil
}

type bookingFixture struct {
	service  *BookingService
	bookings *bookingRepoStub
	rules    *ruleRepoStub
	blocked  *blockedRepoStub
	rooms    *roomRepoStub
	settings *settingsRepoStub
	clock    *testfixtures.Clock
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	clock := testfixtures.NewClock(time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC))
	fixture := &bookingFixture{
		bookings: newBookingRepoStub(),
		rules:    newRuleRepoStub(),
		blocked:  newBlockedRepoStub(),
		rooms:    newRoomRepoStub(persistence.Room{ID: "room-1", Name: "Large Conference"}),
		settings: defaultSettingsStub(),
		clock:    clock,
	}
	fixture.service = NewBookingService(
		fixture.bookings,
		fixture.rules,
		fixture.blocked,
		fixture.rooms,
		fixture.settings,
		nil,
		testfixtures.NewIDGenerator("booking").NextFunc(),
		clock.NowFunc(),
		slog.New(slog.DiscardHandler),
	)
	return fixture
}

func member(id string) Principal {
	return Principal{UserID: id, Role: RoleMember}
}

func admin(id string) Principal {
	return Principal{UserID: id, Role: RoleAdmin}
}

func slot(hour, minute int) time.Time {
	return time.Date(2026, time.March, 2, hour, minute, 0, 0, time.UTC)
}
