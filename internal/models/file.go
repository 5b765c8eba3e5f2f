package models

import (
	"strings"
	"time"
)

// File is an uploaded file, used as a user avatar
type File struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// URL returns the public address of the file under baseURL
func (f *File) URL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/files/" + f.Path
}
