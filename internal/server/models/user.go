package models

import "time"

// User is the account record persisted in the users table. RefreshToken holds
// the single live refresh token for the user; issuing a new one overwrites it.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	RefreshToken string
	Verified     bool
	CreatedAt    time.Time
}
