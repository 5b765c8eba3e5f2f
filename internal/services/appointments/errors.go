package appointments

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation was rejected
type Kind string

const (
	KindValidation         Kind = "validation"
	KindInvalidProvider    Kind = "invalid_provider"
	KindSelfScheduling     Kind = "self_scheduling"
	KindPastDate           Kind = "past_date"
	KindSlotTaken          Kind = "slot_taken"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindCancellationWindow Kind = "cancellation_window"
)

// Error is a business-rule rejection. It is terminal for the request.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrInvalidProvider    = &Error{Kind: KindInvalidProvider}
	ErrSelfScheduling     = &Error{Kind: KindSelfScheduling}
	ErrPastDate           = &Error{Kind: KindPastDate}
	ErrSlotTaken          = &Error{Kind: KindSlotTaken}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrCancellationWindow = &Error{Kind: KindCancellationWindow}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the rejection kind carried by err, or "" for internal failures
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
