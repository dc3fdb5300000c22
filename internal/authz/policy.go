package authz

// Action names the operations a policy can rule on. The vocabulary is fixed;
// an action a policy does not override is denied for everyone.
type Action string

const (
	ActionShow               Action = "show"
	ActionShowAll            Action = "show_all"
	ActionCreate             Action = "create"
	ActionEdit               Action = "edit"
	ActionDelete             Action = "delete"
	ActionModerate           Action = "moderate"
	ActionSwitchRole         Action = "switch_role"
	ActionShowStatisticsPage Action = "show_statistics_page"
)

// Policy rules on the full action vocabulary for one resource kind. Policies
// are stateless; every method is a pure function of actor and context.
type Policy interface {
	Show(Actor, Context) bool
	ShowAll(Actor, Context) bool
	Create(Actor, Context) bool
	Edit(Actor, Context) bool
	Delete(Actor, Context) bool
	Moderate(Actor, Context) bool
	SwitchRole(Actor, Context) bool
	ShowStatisticsPage(Actor, Context) bool
}

// BasePolicy denies every action. Resource policies embed it and override
// only the actions they support, keeping everything else closed by default.
type BasePolicy struct{}

func (BasePolicy) Show(Actor, Context) bool               { return false }
func (BasePolicy) ShowAll(Actor, Context) bool            { return false }
func (BasePolicy) Create(Actor, Context) bool             { return false }
func (BasePolicy) Edit(Actor, Context) bool               { return false }
func (BasePolicy) Delete(Actor, Context) bool             { return false }
func (BasePolicy) Moderate(Actor, Context) bool           { return false }
func (BasePolicy) SwitchRole(Actor, Context) bool         { return false }
func (BasePolicy) ShowStatisticsPage(Actor, Context) bool { return false }

// allowOnly grants access iff the actor is authenticated with exactly role.
func allowOnly(a Actor, role string) bool {
	return a.IsAuthenticated() && a.Role == role
}

// allowAnyOf grants access iff the actor is authenticated and holds one of
// the listed roles.
func allowAnyOf(a Actor, roles ...string) bool {
	if !a.IsAuthenticated() {
		return false
	}
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}
	return false
}

// adminAllUserSelf grants admins unconditionally and base users access to
// their own record only. Callers must have established authentication first;
// a missing target id is a caller bug, not a deniable request.
func adminAllUserSelf(a Actor, c Context) bool {
	if !a.IsAuthenticated() {
		return false
	}
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleUser:
		if c.TargetUserID == nil {
			panic("authz: ownership check requires a target user id")
		}
		return a.ID == *c.TargetUserID
	default:
		return false
	}
}
