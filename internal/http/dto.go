package http

import (
	"time"

	"github.com/example/roombooking/internal/application"
)

type bookingDTO struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Notes     *string `json:"notes,omitempty"`
	RoomID    string  `json:"room_id"`
	OwnerID   string  `json:"owner_id"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Cancelled bool    `json:"cancelled"`
}

func toBookingDTO(b application.Booking) bookingDTO {
	return bookingDTO{
		ID:        b.ID,
		Title:     b.Title,
		Notes:     b.Notes,
		RoomID:    b.RoomID,
		OwnerID:   b.OwnerID,
		Start:     b.Start.UTC().Format(time.RFC3339),
		End:       b.End.UTC().Format(time.RFC3339),
		Cancelled: b.Cancelled,
	}
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}

type ruleDTO struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Notes          *string  `json:"notes,omitempty"`
	RoomID         string   `json:"room_id"`
	OwnerID        string   `json:"owner_id"`
	Weekday        int      `json:"weekday"`
	StartMinute    int      `json:"start_minute"`
	EndMinute      int      `json:"end_minute"`
	Cancelled      bool     `json:"cancelled"`
	ExceptionDates []string `json:"exception_dates"`
}

func toRuleDTO(r application.RecurringRule) ruleDTO {
	return ruleDTO{
		ID:             r.ID,
		Title:          r.Title,
		Notes:          r.Notes,
		RoomID:         r.RoomID,
		OwnerID:        r.OwnerID,
		Weekday:        int(r.Weekday),
		StartMinute:    r.StartMinute,
		EndMinute:      r.EndMinute,
		Cancelled:      r.Cancelled,
		ExceptionDates: r.ExceptionDates,
	}
}

// occurrenceDTO is the tagged variant exposed to calendar consumers. Kind
// tells them whether booking_id or rule_id/date identifies the entry.
type occurrenceDTO struct {
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	BookingID string `json:"booking_id,omitempty"`
	OwnerID   string `json:"owner_id,omitempty"`
	RuleID    string `json:"rule_id,omitempty"`
	Date      string `json:"date,omitempty"`
}

func toOccurrenceDTOs(occurrences []application.Occurrence) []occurrenceDTO {
	out := make([]occurrenceDTO, 0, len(occurrences))
	for _, o := range occurrences {
		dto := occurrenceDTO{
			Kind:  string(o.Kind),
			Title: o.Title,
			Start: o.Start.UTC().Format(time.RFC3339),
			End:   o.End.UTC().Format(time.RFC3339),
		}
		if o.Booking != nil {
			dto.BookingID = o.Booking.ID
			dto.OwnerID = o.Booking.OwnerID
		}
		if o.Kind == application.OccurrenceRecurring {
			dto.RuleID = o.RuleID
			dto.Date = o.Date
		}
		out = append(out, dto)
	}
	return out
}

type roomDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Disabled    bool    `json:"disabled"`
}

func toRoomDTO(r application.Room) roomDTO {
	return roomDTO{ID: r.ID, Name: r.Name, Description: r.Description, Disabled: r.Disabled}
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomDTO(r))
	}
	return out
}

type blockedRangeDTO struct {
	ID     string  `json:"id"`
	RoomID string  `json:"room_id"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Reason *string `json:"reason,omitempty"`
}

func toBlockedRangeDTOs(ranges []application.BlockedRange) []blockedRangeDTO {
	out := make([]blockedRangeDTO, 0, len(ranges))
	for _, b := range ranges {
		out = append(out, blockedRangeDTO{
			ID:     b.ID,
			RoomID: b.RoomID,
			Start:  b.Start.UTC().Format(time.RFC3339),
			End:    b.End.UTC().Format(time.RFC3339),
			Reason: b.Reason,
		})
	}
	return out
}

type settingsDTO struct {
	GranularityMinutes      int `json:"granularity_minutes"`
	MaxAdvanceDays          int `json:"max_advance_days"`
	MaxBookingDurationHours int `json:"max_booking_duration_hours"`
	MaxActiveBookings       int `json:"max_active_bookings"`
}

func toSettingsDTO(s application.Settings) settingsDTO {
	return settingsDTO{
		GranularityMinutes:      s.GranularityMinutes,
		MaxAdvanceDays:          s.MaxAdvanceDays,
		MaxBookingDurationHours: s.MaxBookingDurationHours,
		MaxActiveBookings:       s.MaxActiveBookings,
	}
}

func (s settingsDTO) toSettings() application.Settings {
	return application.Settings{
		GranularityMinutes:      s.GranularityMinutes,
		MaxAdvanceDays:          s.MaxAdvanceDays,
		MaxBookingDurationHours: s.MaxBookingDurationHours,
		MaxActiveBookings:       s.MaxActiveBookings,
	}
}
