package models

import (
	"time"
)

// User represents a user in the system. Providers are users that can
// receive appointment bookings.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Provider  bool      `json:"provider"`
	AvatarID  *int64    `json:"avatar_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
