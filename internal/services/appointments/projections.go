package appointments

import (
	"time"

	"github.com/benvon/appointment-scheduler/internal/models"
)

// Avatar is the public view of a provider's avatar file
type Avatar struct {
	ID   int64  `json:"id"`
	URL  string `json:"url"`
	Path string `json:"path"`
}

// ProviderSummary is the provider as shown in appointment listings
type ProviderSummary struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Avatar *Avatar `json:"avatar"`
}

// ListItem is one row of the caller's appointment list
type ListItem struct {
	ID         int64            `json:"id"`
	Date       time.Time        `json:"date"`
	Past       bool             `json:"past"`
	Cancelable bool             `json:"cancelable"`
	Provider   *ProviderSummary `json:"provider"`
}

// Party identifies a participant of a canceled appointment
type Party struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CanceledAppointment is the result of a cancel, with both participants
type CanceledAppointment struct {
	*models.Appointment
	Provider Party `json:"provider"`
	User     Party `json:"user"`
}

// CreateInput carries the booking request
type CreateInput struct {
	ProviderID int64  `json:"provider_id" validate:"gt=0"`
	Date       string `json:"date" validate:"required,timestamp"`
}

func partyOf(u *models.User) Party {
	if u == nil {
		return Party{}
	}
	return Party{ID: u.ID, Name: u.Name, Email: u.Email}
}
