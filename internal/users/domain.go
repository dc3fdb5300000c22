package users

import "time"

// User represents an account visible in user management.
type User struct {
	ID         int64
	Login      string
	LastName   string
	FirstName  string
	MiddleName string
	RoleID     int64
	RoleName   string
	CreatedAt  time.Time
}

// FullName renders the display name used in listings.
func (u User) FullName() string {
	name := u.LastName + " " + u.FirstName
	if u.MiddleName != "" {
		name += " " + u.MiddleName
	}
	return name
}
