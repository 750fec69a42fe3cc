package application

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation so callers can render a precise message
// without inspecting error strings. Every service error carries exactly one
// kind; validation fails fast and reports the first violated rule only.
type Kind string

const (
	// KindMisalignedTime rejects instants off the configured booking grid.
	KindMisalignedTime Kind = "MisalignedTime"
	// KindDurationExceeded rejects intervals longer than the duration cap.
	KindDurationExceeded Kind = "DurationExceeded"
	// KindTooFarInAdvance rejects starts beyond the advance window.
	KindTooFarInAdvance Kind = "TooFarInAdvance"
	// KindInThePast rejects intervals that do not start in the future.
	KindInThePast Kind = "InThePast"
	// KindQuotaExceeded rejects creates above the per-user active cap.
	KindQuotaExceeded Kind = "QuotaExceeded"
	// KindTimeConflict rejects intervals overlapping existing occupancy.
	KindTimeConflict Kind = "TimeConflict"
	// KindRoleNotPermitted rejects callers whose role may not perform the operation.
	KindRoleNotPermitted Kind = "RoleNotPermitted"
	// KindNotOwner rejects callers who neither own the record nor are admins.
	KindNotOwner Kind = "NotOwner"
	// KindAlreadyStarted rejects changes to reservations already underway.
	KindAlreadyStarted Kind = "AlreadyStarted"
	// KindNotFound reports a missing or unavailable resource.
	KindNotFound Kind = "NotFound"
	// KindInvalidInput reports structurally invalid caller input.
	KindInvalidInput Kind = "InvalidInput"
	// KindUnexpected wraps unanticipated storage or runtime faults. It is the
	// only kind that hides detail from the caller; the cause is logged.
	KindUnexpected Kind = "Unexpected"
)

// Error is the typed failure returned by all application services.
type Error struct {
	Kind    Kind
	Message string

	// Limit carries the numeric bound that was violated, when one applies
	// (quota size, duration cap, advance window, granularity).
	Limit int

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// NewError builds a typed error with a formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewLimitError builds a typed error that records the violated numeric bound.
func NewLimitError(kind Kind, limit int, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Limit: limit}
}

// WrapUnexpected hides an internal fault behind a generic message while
// preserving the cause for logging via Unwrap.
func WrapUnexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: "internal error", cause: err}
}

// KindOf extracts the kind from an error chain, defaulting to KindUnexpected.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
