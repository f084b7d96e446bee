package models

import "time"

// User is a registered account. PasswordHash is a bcrypt hash and never leaves
// the process.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a logged-in user. Only the SHA-256 hash of the session token is stored.
type Session struct {
	TokenHash string
	Username  string
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
