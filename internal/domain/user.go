package domain

import "time"

// User is a registered account. Users are created at signup and never
// modified afterwards.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	AvatarURL    string    `json:"avatar_url"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	CreatedAt    time.Time `json:"created_at"`
}

// Public returns a copy of the user without the password hash. This is the
// record embedded in posts and comments and persisted to sessions.
func (u *User) Public() User {
	c := *u
	c.PasswordHash = ""
	return c
}

// SignupDraft carries the fields supplied when registering.
type SignupDraft struct {
	Username string
	FullName string
	Email    string
	Password string
}
