package application

import (
	"github.com/example/roombooking/internal/conflict"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/recurrence"
)

func toBooking(b persistence.Booking) Booking {
	return Booking{
		ID:        b.ID,
		Title:     b.Title,
		Notes:     cloneString(b.Notes),
		RoomID:    b.RoomID,
		OwnerID:   b.OwnerID,
		Start:     b.Start,
		End:       b.End,
		Cancelled: b.Cancelled,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func toRoom(r persistence.Room) Room {
	return Room{
		ID:          r.ID,
		Name:        r.Name,
		Description: cloneString(r.Description),
		Disabled:    r.Disabled,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toRecurringRule(r persistence.RecurringRule) RecurringRule {
	return RecurringRule{
		ID:             r.ID,
		Title:          r.Title,
		Notes:          cloneString(r.Notes),
		RoomID:         r.RoomID,
		OwnerID:        r.OwnerID,
		Weekday:        r.Weekday,
		StartMinute:    r.StartMinute,
		EndMinute:      r.EndMinute,
		Cancelled:      r.Cancelled,
		ExceptionDates: cloneStrings(r.ExceptionDates),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toBlockedRange(b persistence.BlockedRange) BlockedRange {
	return BlockedRange{
		ID:        b.ID,
		RoomID:    b.RoomID,
		Start:     b.Start,
		End:       b.End,
		Reason:    cloneString(b.Reason),
		CreatedAt: b.CreatedAt,
	}
}

func toSettings(s persistence.Settings) Settings {
	return Settings{
		GranularityMinutes:      s.GranularityMinutes,
		MaxAdvanceDays:          s.MaxAdvanceDays,
		MaxBookingDurationHours: s.MaxBookingDurationHours,
		MaxActiveBookings:       s.MaxActiveBookings,
	}
}

func toConflictBookings(bookings []persistence.Booking) []conflict.Booking {
	out := make([]conflict.Booking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, conflict.Booking{
			ID:        b.ID,
			Start:     b.Start,
			End:       b.End,
			Cancelled: b.Cancelled,
		})
	}
	return out
}

func toConflictBlocked(ranges []persistence.BlockedRange) []conflict.BlockedRange {
	out := make([]conflict.BlockedRange, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, conflict.BlockedRange{ID: r.ID, Start: r.Start, End: r.End})
	}
	return out
}

func toConflictRules(rules []persistence.RecurringRule) []conflict.Rule {
	out := make([]conflict.Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, conflict.Rule{
			ID:          r.ID,
			Weekday:     r.Weekday,
			StartMinute: r.StartMinute,
			EndMinute:   r.EndMinute,
			Cancelled:   r.Cancelled,
			Exceptions:  cloneStrings(r.ExceptionDates),
		})
	}
	return out
}

func toRecurrenceRules(rules []persistence.RecurringRule) []recurrence.Rule {
	out := make([]recurrence.Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, recurrence.Rule{
			ID:          r.ID,
			Title:       r.Title,
			RoomID:      r.RoomID,
			Weekday:     r.Weekday,
			StartMinute: r.StartMinute,
			EndMinute:   r.EndMinute,
			Cancelled:   r.Cancelled,
			Exceptions:  cloneStrings(r.ExceptionDates),
		})
	}
	return out
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
