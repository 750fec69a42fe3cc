package recurrence

import (
	"errors"
	"sort"
	"time"
)

// Rule describes a weekly recurring reservation for one room. It has no start
// or end calendar date: it produces an occurrence every week on Weekday until
// the rule is tombstoned. Exception dates suppress individual occurrences
// without touching the rule itself.
type Rule struct {
	ID          string
	Title       string
	RoomID      string
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	Cancelled   bool
	Exceptions  []string
}

// Occurrence is a virtual, display-ready instance of a rule on one calendar
// date. Occurrences are derived on read and never persisted.
type Occurrence struct {
	RuleID string
	Title  string
	RoomID string
	Date   string
	Start  time.Time
	End    time.Time
}

// ErrInvalidWindow indicates the expansion range is empty or inverted.
var ErrInvalidWindow = errors.New("recurrence: range end must be after range start")

// ErrInvalidMinutes indicates a rule's minute range is out of bounds.
var ErrInvalidMinutes = errors.New("recurrence: end minute must be after start minute within one day")

// ValidateMinutes checks that a (startMinute, endMinute) pair describes a
// non-empty half-open window inside a single day.
func ValidateMinutes(startMinute, endMinute int) error {
	if startMinute < 0 || endMinute > 24*60 || endMinute <= startMinute {
		return ErrInvalidMinutes
	}
	return nil
}

// Expand materializes occurrences for every calendar day d in
// [rangeStart, rangeEnd) and every active rule whose weekday matches d and
// whose exception list does not contain d's date. Results are ordered by
// start time, then rule id.
//
// Expand is a pure function of its inputs: calling it twice with identical
// rules and range yields identical output.
func Expand(rules []Rule, rangeStart, rangeEnd time.Time) ([]Occurrence, error) {
	if !rangeEnd.After(rangeStart) {
		return nil, ErrInvalidWindow
	}

	active := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if rule.Cancelled {
			continue
		}
		if err := ValidateMinutes(rule.StartMinute, rule.EndMinute); err != nil {
			return nil, err
		}
		active = append(active, rule)
	}
	if len(active) == 0 {
		return nil, nil
	}

	occurrences := make([]Occurrence, 0)
	for day := startOfDay(rangeStart); day.Before(rangeEnd); day = day.AddDate(0, 0, 1) {
		date := day.Format(time.DateOnly)
		for _, rule := range active {
			if rule.Weekday != day.Weekday() {
				continue
			}
			if excepted(rule.Exceptions, date) {
				continue
			}
			occurrences = append(occurrences, Occurrence{
				RuleID: rule.ID,
				Title:  rule.Title,
				RoomID: rule.RoomID,
				Date:   date,
				Start:  day.Add(time.Duration(rule.StartMinute) * time.Minute),
				End:    day.Add(time.Duration(rule.EndMinute) * time.Minute),
			})
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		if occurrences[i].Start.Equal(occurrences[j].Start) {
			return occurrences[i].RuleID < occurrences[j].RuleID
		}
		return occurrences[i].Start.Before(occurrences[j].Start)
	})

	return occurrences, nil
}

// ParseDate validates an ISO calendar date string as used in exception lists.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(time.DateOnly, value)
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func excepted(dates []string, date string) bool {
	for _, d := range dates {
		if d == date {
			return true
		}
	}
	return false
}
