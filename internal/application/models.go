package application

import "time"

// Role is the authorization level resolved for a caller by the external
// identity collaborator.
type Role string

const (
	// RoleAdmin may manage rooms, rules, blocked ranges, settings and any booking.
	RoleAdmin Role = "ADMIN"
	// RoleMember may create and manage their own single bookings.
	RoleMember Role = "MEMBER"
	// RoleViewer may only read.
	RoleViewer Role = "VIEWER"
)

// ParseRole validates a role string received from the transport layer.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleAdmin, RoleMember, RoleViewer:
		return Role(value), true
	default:
		return "", false
	}
}

// Principal identifies the caller of a service operation. Authorization
// decisions always use the authenticated Role; ActingAsUserID only shifts
// ownership attribution, and only for admins.
type Principal struct {
	UserID         string
	Role           Role
	ActingAsUserID string
}

// IsAdmin reports whether the authenticated role is ADMIN.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// EffectiveUserID returns the user id new records are attributed to. An admin
// acting on behalf of another user books under that user's identity.
func (p Principal) EffectiveUserID() string {
	if p.IsAdmin() && p.ActingAsUserID != "" {
		return p.ActingAsUserID
	}
	return p.UserID
}

// Settings is the immutable-per-request configuration snapshot read at the
// start of every validation.
type Settings struct {
	GranularityMinutes      int
	MaxAdvanceDays          int
	MaxBookingDurationHours int
	MaxActiveBookings       int
}

// Room is a bookable physical room. Disabled rooms are excluded from new
// reservation flows but keep their historical bookings.
type Room struct {
	ID          string
	Name        string
	Description *string
	Disabled    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Booking is a one-off reservation. Once Cancelled is set the record is
// immutable history; bookings are never deleted.
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

// RecurringRule is a weekly reservation rule. It recurs indefinitely until
// tombstoned; individual occurrences are suppressed via ExceptionDates.
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

// BlockedRange marks room time as unavailable for booking.
type BlockedRange struct {
	ID        string
	RoomID    string
	Start     time.Time
	End       time.Time
	Reason    *string
	CreatedAt time.Time
}

// OccurrenceKind tags the variant carried by an Occurrence.
type OccurrenceKind string

const (
	// OccurrenceSingle wraps a stored one-off booking.
	OccurrenceSingle OccurrenceKind = "single"
	// OccurrenceRecurring wraps a virtual instance derived from a rule.
	OccurrenceRecurring OccurrenceKind = "recurring"
)

// Occurrence is one dated entry in a room's occupancy view: either a stored
// single booking or an expanded recurring instance. Consumers dispatch on
// Kind rather than on id formats.
type Occurrence struct {
	Kind  OccurrenceKind
	Title string
	Start time.Time
	End   time.Time

	// Booking is set when Kind is OccurrenceSingle.
	Booking *Booking

	// RuleID and Date are set when Kind is OccurrenceRecurring.
	RuleID string
	Date   string
}

// BookingInput captures caller-provided fields for a new single booking.
type BookingInput struct {
	Title  string
	Notes  *string
	RoomID string
	Start  time.Time
	End    time.Time
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// EditBookingParams wraps the data required to retitle a booking. Times are
// immutable after creation.
type EditBookingParams struct {
	Principal Principal
	BookingID string
	Title     string
	Notes     *string
}

// ListOccurrencesParams bounds the occupancy view for one room.
type ListOccurrencesParams struct {
	RoomID     string
	RangeStart time.Time
	RangeEnd   time.Time
}

// RuleInput captures caller-provided fields for a new recurring rule.
type RuleInput struct {
	Title       string
	Notes       *string
	RoomID      string
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
}

// CreateRuleParams wraps the data required to create a recurring rule.
type CreateRuleParams struct {
	Principal Principal
	Input     RuleInput
}

// RoomInput captures caller-provided room fields.
type RoomInput struct {
	Name        string
	Description *string
}

// BlockedRangeInput captures caller-provided blocked range fields.
type BlockedRangeInput struct {
	RoomID string
	Start  time.Time
	End    time.Time
	Reason *string
}
