package models

import "time"

// Session is a server-side refresh-token record. One user may hold many
// concurrent sessions; a session is deleted on sign-out or expiry, never
// updated in place.
type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
