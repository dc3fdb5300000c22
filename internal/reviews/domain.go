package reviews

import "time"

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's immutable opinion on a course.
type Review struct {
	ID        int64
	CourseID  int64
	UserID    int64
	Rating    int
	Text      string
	CreatedAt time.Time

	// AuthorName is joined in for listings.
	AuthorName string
}

// SortOrder selects how course reviews are listed.
type SortOrder string

const (
	SortNewest   SortOrder = "newest"
	SortPositive SortOrder = "positive"
	SortNegative SortOrder = "negative"
)

// ParseSortOrder maps a query-string value to a known order, defaulting to
// newest-first.
func ParseSortOrder(raw string) SortOrder {
	switch SortOrder(raw) {
	case SortPositive:
		return SortPositive
	case SortNegative:
		return SortNegative
	default:
		return SortNewest
	}
}
