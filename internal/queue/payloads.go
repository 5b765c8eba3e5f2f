package queue

import "time"

// Party identifies one side of an appointment in a job snapshot
type Party struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CancellationMailPayload is the appointment snapshot carried by a
// cancellation_mail job
type CancellationMailPayload struct {
	AppointmentID int64     `json:"appointment_id"`
	Date          time.Time `json:"date"`
	CanceledAt    time.Time `json:"canceled_at"`
	Provider      Party     `json:"provider"`
	User          Party     `json:"user"`
}
