package courses

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/campus-hub/campus-hub/internal/shared"
)

// Repository provides course persistence.
type Repository interface {
	List(ctx context.Context, filter SearchFilter, page shared.Pagination) ([]Course, error)
	Count(ctx context.Context, filter SearchFilter) (int, error)
	Get(ctx context.Context, id int64) (*Course, error)
	Insert(ctx context.Context, course *Course) error
	Update(ctx context.Context, course *Course) error
	Delete(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]Category, error)
}

// Service exposes catalog operations to handlers.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one catalog page matching the filter.
func (s *Service) List(ctx context.Context, filter SearchFilter, page, perPage int) ([]Course, shared.Pagination, error) {
	filter.Name = normalizeInput(filter.Name)
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pagination := shared.NewPagination(page, perPage, total)
	list, err := s.repo.List(ctx, filter, pagination)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, pagination, nil
}

// Get fetches a single course.
func (s *Service) Get(ctx context.Context, id int64) (*Course, error) {
	return s.repo.Get(ctx, id)
}

// CreateCourseInput carries a new catalog entry.
type CreateCourseInput struct {
	Name       string
	ShortDesc  string
	FullDesc   string
	CategoryID int64
	AuthorID   int64
	ImageName  string
}

// Create validates and persists a new course.
func (s *Service) Create(ctx context.Context, in CreateCourseInput) (*Course, error) {
	name := normalizeInput(in.Name)
	if name == "" {
		return nil, shared.NewValidationError("name", "Название курса не может быть пустым")
	}
	course := &Course{
		Name:       name,
		ShortDesc:  normalizeInput(in.ShortDesc),
		FullDesc:   normalizeInput(in.FullDesc),
		CategoryID: in.CategoryID,
		AuthorID:   in.AuthorID,
		ImageName:  in.ImageName,
	}
	if err := s.repo.Insert(ctx, course); err != nil {
		return nil, shared.NewPersistenceError("courses: create", err)
	}
	return course, nil
}

// Update rewrites the descriptive fields of an existing course. The rating
// aggregate is deliberately not touchable through this path.
func (s *Service) Update(ctx context.Context, course *Course) error {
	course.Name = normalizeInput(course.Name)
	if course.Name == "" {
		return shared.NewValidationError("name", "Название курса не может быть пустым")
	}
	if err := s.repo.Update(ctx, course); err != nil {
		return shared.NewPersistenceError("courses: update", err)
	}
	return nil
}

// Delete removes a course.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Categories lists all course categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// normalizeInput trims and NFC-normalises form input so that visually equal
// Cyrillic strings compare and search equal.
func normalizeInput(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
