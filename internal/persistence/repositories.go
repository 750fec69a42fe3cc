package persistence

import (
	"context"
	"time"
)

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, includeDisabled bool) ([]Room, error)
}

// BookingRepository stores single reservations.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) error

	// ListRoomBookings returns non-cancelled bookings for the room whose
	// [start, end) interval overlaps [from, to), ordered by start time.
	ListRoomBookings(ctx context.Context, roomID string, from, to time.Time) ([]Booking, error)

	// ListUserBookings returns all bookings owned by the user, including
	// cancelled ones, newest start first.
	ListUserBookings(ctx context.Context, userID string) ([]Booking, error)

	// CountActiveBookings counts the user's non-cancelled bookings ending
	// after the reference instant.
	CountActiveBookings(ctx context.Context, userID string, reference time.Time) (int, error)
}

// RecurringRuleRepository stores weekly rules and their exception dates.
type RecurringRuleRepository interface {
	CreateRule(ctx context.Context, rule RecurringRule) error
	GetRule(ctx context.Context, id string) (RecurringRule, error)

	// ListRoomRules returns the room's non-cancelled rules with exception
	// dates populated in ascending order.
	ListRoomRules(ctx context.Context, roomID string) ([]RecurringRule, error)

	// AddException records an exception date for a rule. Recording the same
	// date twice is a no-op.
	AddException(ctx context.Context, ruleID, date string, at time.Time) error

	// CancelRule tombstones a rule. Cancelled rules produce no occurrences
	// and never conflict.
	CancelRule(ctx context.Context, ruleID string, at time.Time) error
}

// BlockedRangeRepository stores administrator-managed blocked time ranges.
type BlockedRangeRepository interface {
	CreateBlockedRange(ctx context.Context, blocked BlockedRange) error
	DeleteBlockedRange(ctx context.Context, id string) error

	// ListRoomBlockedRanges returns blocked ranges for the room overlapping
	// [from, to), ordered by start time.
	ListRoomBlockedRanges(ctx context.Context, roomID string, from, to time.Time) ([]BlockedRange, error)
}

// SettingsRepository stores the singleton configuration snapshot.
type SettingsRepository interface {
	LoadSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error

	// SeedSettings inserts the defaults when no settings row exists yet.
	SeedSettings(ctx context.Context, settings Settings) error
}
