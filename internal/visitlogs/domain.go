package visitlogs

import "time"

// Visit is one recorded page view.
type Visit struct {
	ID        int64
	Path      string
	UserID    *int64
	CreatedAt time.Time

	// UserName is filled by listing queries, empty for anonymous visits.
	UserName string
}

// PageStat aggregates visits per path.
type PageStat struct {
	Path  string
	Count int
}

// UserStat aggregates visits per user. A nil UserID groups anonymous views.
type UserStat struct {
	UserID   *int64
	UserName string
	Count    int
}
