package authz

// Resource kinds registered with the default engine.
const (
	ResourceEvents    = "events"
	ResourceUsers     = "users"
	ResourceVisitLogs = "visit_logs"
	ResourceCourses   = "courses"
	ResourceReviews   = "reviews"
)

// EventsPolicy rules the event catalog. Event pages are public; mutations
// belong to moderators and admins.
type EventsPolicy struct{ BasePolicy }

func (EventsPolicy) Show(Actor, Context) bool { return true }

func (EventsPolicy) Create(a Actor, _ Context) bool {
	return allowOnly(a, RoleAdmin)
}

func (EventsPolicy) Edit(a Actor, _ Context) bool {
	return allowAnyOf(a, RoleModerator, RoleAdmin)
}

func (EventsPolicy) Delete(a Actor, _ Context) bool {
	return allowOnly(a, RoleAdmin)
}

func (EventsPolicy) Moderate(a Actor, _ Context) bool {
	return allowAnyOf(a, RoleModerator, RoleAdmin)
}

// UsersPolicy rules user management. Users can view and edit themselves,
// admins can do everything.
type UsersPolicy struct{ BasePolicy }

func (UsersPolicy) Show(a Actor, c Context) bool {
	return adminAllUserSelf(a, c)
}

func (UsersPolicy) Edit(a Actor, c Context) bool {
	return adminAllUserSelf(a, c)
}

func (UsersPolicy) Create(a Actor, _ Context) bool {
	return allowOnly(a, RoleAdmin)
}

func (UsersPolicy) Delete(a Actor, _ Context) bool {
	return allowOnly(a, RoleAdmin)
}

func (UsersPolicy) SwitchRole(a Actor, _ Context) bool {
	return allowOnly(a, RoleAdmin)
}

// VisitLogsPolicy rules the visit journal. Everyone sees their own visits
// through the handler; the full journal and the statistics pages are
// restricted here.
type VisitLogsPolicy struct{ BasePolicy }

func (VisitLogsPolicy) ShowAll(a Actor, _ Context) bool {
	return allowOnly(a, RoleAdmin)
}

func (VisitLogsPolicy) ShowStatisticsPage(a Actor, _ Context) bool {
	return allowAnyOf(a, RoleModerator, RoleAdmin)
}

// CoursesPolicy rules the course catalog. Browsing is public.
type CoursesPolicy struct{ BasePolicy }

func (CoursesPolicy) Show(Actor, Context) bool { return true }

func (CoursesPolicy) Create(a Actor, _ Context) bool {
	return allowOnly(a, RoleAdmin)
}

func (CoursesPolicy) Edit(a Actor, _ Context) bool {
	return allowOnly(a, RoleAdmin)
}

func (CoursesPolicy) Delete(a Actor, _ Context) bool {
	return allowOnly(a, RoleAdmin)
}

// ReviewsPolicy rules course reviews. Any authenticated user may leave one;
// reviews are immutable once written.
type ReviewsPolicy struct{ BasePolicy }

func (ReviewsPolicy) Create(a Actor, _ Context) bool {
	return a.IsAuthenticated()
}

// DefaultPolicies returns the resource registry used by the application.
// The mapping is fixed at startup and never mutated afterwards.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		ResourceEvents:    EventsPolicy{},
		ResourceUsers:     UsersPolicy{},
		ResourceVisitLogs: VisitLogsPolicy{},
		ResourceCourses:   CoursesPolicy{},
		ResourceReviews:   ReviewsPolicy{},
	}
}
