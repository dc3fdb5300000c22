package auth

import "time"

// Credentials is the authentication view of a user account.
type Credentials struct {
	ID           int64
	Login        string
	PasswordHash string
	RoleName     string
	LastName     string
	FirstName    string
	CreatedAt    time.Time
}
