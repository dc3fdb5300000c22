package roles

// Role is one entry of the closed role set seeded at install time.
type Role struct {
	ID          int64
	Name        string
	Description string
}
