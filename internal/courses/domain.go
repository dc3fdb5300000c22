package courses

import "time"

// Category groups courses in the catalog.
type Category struct {
	ID   int64
	Name string
}

// Course is a rated catalog entry. The aggregate pair rating_sum/rating_num
// is owned by the reviews transaction and never written anywhere else.
type Course struct {
	ID         int64
	Name       string
	ShortDesc  string
	FullDesc   string
	RatingSum  int
	RatingNum  int
	CategoryID int64
	AuthorID   int64
	ImageName  string
	CreatedAt  time.Time

	CategoryName string
	AuthorName   string
}

// Rating derives the average. It is never stored; a denormalised average
// would be a second invariant to keep in sync.
func (c Course) Rating() float64 {
	if c.RatingNum > 0 {
		return float64(c.RatingSum) / float64(c.RatingNum)
	}
	return 0
}

// SearchFilter narrows the catalog listing.
type SearchFilter struct {
	Name        string
	CategoryIDs []int64
}
