package persistence

import "time"

// Room is a bookable room catalog entry.
type Room struct {
	ID          string
	Name        string
	Description *string
	Disabled    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Booking is a stored one-off reservation. Cancelled rows are retained as
// history and never deleted.
type Booking struct {
	ID        string
	Title     string
	Notes     *string
	RoomID    string
	OwnerID   string
	Start     time.Time
	End       time.Time
	Cancelled bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecurringRule is a stored weekly reservation rule plus its exception dates.
// Cancellation tombstones the row; rules are never deleted.
type RecurringRule struct {
	ID             string
	Title          string
	Notes          *string
	RoomID         string
	OwnerID        string
	Weekday        time.Weekday
	StartMinute    int
	EndMinute      int
	Cancelled      bool
	ExceptionDates []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BlockedRange marks room time as unavailable.
type BlockedRange struct {
	ID        string
	RoomID    string
	Start     time.Time
	End       time.Time
	Reason    *string
	CreatedAt time.Time
}

// Settings is the singleton configuration row.
type Settings struct {
	GranularityMinutes      int
	MaxAdvanceDays          int
	MaxBookingDurationHours int
	MaxActiveBookings       int
	UpdatedAt               time.Time
}
