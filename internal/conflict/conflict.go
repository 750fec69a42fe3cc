package conflict

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap.
//
// Every conflict path in the system must route through this predicate (or its
// minute-of-day sibling) so the overlap convention cannot drift between the
// single-booking, blocked-range and recurring checks.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// MinutesOverlap is the minute-of-day form of Overlaps for recurring rules.
func MinutesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// Booking is the subset of a stored reservation needed for conflict checks.
type Booking struct {
	ID        string
	Start     time.Time
	End       time.Time
	Cancelled bool
}

// BlockedRange is a room maintenance window treated as occupied time.
type BlockedRange struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Rule is the subset of a recurring rule needed for conflict checks.
type Rule struct {
	ID          string
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	Cancelled   bool
	Exceptions  []string
}

// Source identifies which kind of record produced a conflict.
type Source string

const (
	// SourceBooking marks a conflict with an existing single booking.
	SourceBooking Source = "booking"
	// SourceBlocked marks a conflict with a blocked time range.
	SourceBlocked Source = "blocked"
	// SourceRule marks a conflict with a recurring rule occurrence.
	SourceRule Source = "rule"
)

// Hit describes the first conflicting record found for a candidate interval.
type Hit struct {
	Source Source
	ID     string
}

// Candidate is a proposed reservation interval for one room.
type Candidate struct {
	Start time.Time
	End   time.Time

	// ExcludeBookingID removes one booking from consideration, used when
	// re-validating an existing reservation against its own room.
	ExcludeBookingID string
}

// Detect runs the three overlap checks for a candidate and returns the first
// hit, or nil when the slot is free. Cancelled bookings and tombstoned rules
// never conflict; a rule whose exception list contains the candidate's
// calendar date produces no occurrence that day and is skipped.
func Detect(candidate Candidate, bookings []Booking, blocked []BlockedRange, rules []Rule) *Hit {
	for _, b := range bookings {
		if b.Cancelled || b.ID == candidate.ExcludeBookingID {
			continue
		}
		if Overlaps(b.Start, b.End, candidate.Start, candidate.End) {
			return &Hit{Source: SourceBooking, ID: b.ID}
		}
	}

	for _, r := range blocked {
		if Overlaps(r.Start, r.End, candidate.Start, candidate.End) {
			return &Hit{Source: SourceBlocked, ID: r.ID}
		}
	}

	day := candidate.Start.UTC()
	date := day.Format(time.DateOnly)
	startMinute := day.Hour()*60 + day.Minute()
	endMinute := startMinute + int(candidate.End.Sub(candidate.Start)/time.Minute)

	for _, r := range rules {
		if r.Cancelled || r.Weekday != day.Weekday() {
			continue
		}
		if !MinutesOverlap(r.StartMinute, r.EndMinute, startMinute, endMinute) {
			continue
		}
		if containsDate(r.Exceptions, date) {
			continue
		}
		return &Hit{Source: SourceRule, ID: r.ID}
	}

	return nil
}

// RulesOverlap reports whether two weekly rules would ever produce
// overlapping occurrences. Rules recur indefinitely, so a weekday match plus
// a minute-range overlap is sufficient.
func RulesOverlap(a, b Rule) bool {
	if a.Cancelled || b.Cancelled {
		return false
	}
	if a.Weekday != b.Weekday {
		return false
	}
	return MinutesOverlap(a.StartMinute, a.EndMinute, b.StartMinute, b.EndMinute)
}

func containsDate(dates []string, date string) bool {
	for _, d := range dates {
		if d == date {
			return true
		}
	}
	return false
}
