package models

import (
	"time"
)

// CancellationWindow is the minimum lead time before an appointment's date
// within which it can no longer be canceled.
const CancellationWindow = 2 * time.Hour

// Appointment is a booking of a provider by a user for a given hour.
type Appointment struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	ProviderID int64      `json:"provider_id"`
	Date       time.Time  `json:"date"`
	Slot       time.Time  `json:"-"`
	CanceledAt *time.Time `json:"canceled_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// SlotFor returns the start of the wall-clock hour in loc that t falls into,
// expressed in UTC. A nil loc means UTC.
func SlotFor(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	intoHour := time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())
	return t.Add(-intoHour).UTC()
}

// Canceled reports whether the appointment has a cancellation timestamp
func (a *Appointment) Canceled() bool {
	return a.CanceledAt != nil
}

// Past reports whether the appointment date is earlier than now
func (a *Appointment) Past(now time.Time) bool {
	return a.Date.Before(now)
}

// CancellationDeadline is the last instant at which the appointment may be canceled
func (a *Appointment) CancellationDeadline() time.Time {
	return a.Date.Add(-CancellationWindow)
}

// Cancelable reports whether now is still at or before the cancellation deadline
func (a *Appointment) Cancelable(now time.Time) bool {
	return !a.CancellationDeadline().Before(now)
}
