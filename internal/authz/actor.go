package authz

// Role names form a closed set seeded at installation time.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// Actor identifies who is performing the current request. The zero value is
// the anonymous actor.
type Actor struct {
	ID   int64
	Role string

	authenticated bool
}

// Anonymous returns the unauthenticated actor.
func Anonymous() Actor {
	return Actor{}
}

// Authenticated returns an actor carrying a user id and role.
func Authenticated(id int64, role string) Actor {
	return Actor{ID: id, Role: role, authenticated: true}
}

// IsAuthenticated reports whether the actor has logged in.
func (a Actor) IsAuthenticated() bool {
	return a.authenticated
}

// Context carries per-decision parameters. It is supplied per call and never
// stored.
type Context struct {
	// TargetUserID is the user the action is aimed at, required by
	// ownership rules.
	TargetUserID *int64
}

// WithTarget builds a Context for an ownership-checked decision.
func WithTarget(userID int64) Context {
	return Context{TargetUserID: &userID}
}
