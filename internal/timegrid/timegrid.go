package timegrid

import (
	"errors"
	"time"
)

// Limits captures the configuration values that constrain candidate intervals.
type Limits struct {
	GranularityMinutes int
	MaxDurationHours   int
	MaxAdvanceDays     int
}

// ErrMisaligned indicates a start or end instant is not a multiple of the
// configured granularity from the Unix epoch.
var ErrMisaligned = errors.New("timegrid: instant not aligned to granularity")

// ErrDurationExceeded indicates the interval is longer than the configured cap.
var ErrDurationExceeded = errors.New("timegrid: duration exceeds maximum")

// ErrTooFarInAdvance indicates the interval starts beyond the advance window.
var ErrTooFarInAdvance = errors.New("timegrid: start exceeds advance window")

// ErrInThePast indicates the interval does not start in the future.
var ErrInThePast = errors.New("timegrid: start is not in the future")

// Validate checks a candidate interval against the booking grid. Checks run in
// a fixed order and the first violation wins:
//
//  1. both instants align to the granularity measured from the Unix epoch
//  2. the duration does not exceed the configured cap
//  3. the start falls within the advance window relative to now
//  4. the start is strictly in the future
//
// Validate is a pure function of its arguments and performs no I/O.
func Validate(start, end time.Time, limits Limits, now time.Time) error {
	granularity := time.Duration(limits.GranularityMinutes) * time.Minute
	if granularity > 0 {
		if !aligned(start, granularity) || !aligned(end, granularity) {
			return ErrMisaligned
		}
	}

	maxDuration := time.Duration(limits.MaxDurationHours) * time.Hour
	if maxDuration > 0 && end.Sub(start) > maxDuration {
		return ErrDurationExceeded
	}

	horizon := now.AddDate(0, 0, limits.MaxAdvanceDays)
	if limits.MaxAdvanceDays > 0 && start.After(horizon) {
		return ErrTooFarInAdvance
	}

	if !start.After(now) {
		return ErrInThePast
	}

	return nil
}

func aligned(t time.Time, granularity time.Duration) bool {
	return t.UnixNano()%int64(granularity) == 0
}
