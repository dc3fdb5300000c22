package reviews

import (
	"context"
	"errors"
	"strings"

	"github.com/campus-hub/campus-hub/internal/shared"
)

// ErrAlreadyReviewed is returned by repositories when the author has a
// review for the course already.
var ErrAlreadyReviewed = errors.New("reviews: already reviewed")

// Repository provides review persistence. The combined insert-plus-increment
// runs through WithTx so both writes commit or neither does.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	ListByCourse(ctx context.Context, courseID int64, order SortOrder, page shared.Pagination) ([]Review, error)
	CountByCourse(ctx context.Context, courseID int64) (int, error)
	LatestByAuthor(ctx context.Context, courseID, userID int64) (*Review, error)
}

// TxRepository exposes the writes available inside one transaction.
type TxRepository interface {
	InsertReview(ctx context.Context, review *Review) error
	// AddCourseRating performs the SQL-level atomic increment of the
	// course aggregate pair. It never reads the current values back into
	// the application.
	AddCourseRating(ctx context.Context, courseID int64, rating int) error
}

// Service records reviews and keeps course rating aggregates consistent.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateReviewInput carries a review submission.
type CreateReviewInput struct {
	CourseID int64
	AuthorID int64
	Rating   int
	Text     string
}

// RecordReview validates the rating, inserts the review and bumps the course
// aggregate inside a single transaction. On any storage failure the
// transaction is rolled back in full and the error resurfaces as a
// persistence error; nothing partial is ever visible.
func (s *Service) RecordReview(ctx context.Context, in CreateReviewInput) (*Review, error) {
	if in.Rating < MinRating || in.Rating > MaxRating {
		return nil, shared.NewValidationError("rating", "Оценка должна быть числом от 1 до 5")
	}

	review := &Review{
		CourseID: in.CourseID,
		UserID:   in.AuthorID,
		Rating:   in.Rating,
		Text:     strings.TrimSpace(in.Text),
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertReview(ctx, review); err != nil {
			return err
		}
		return tx.AddCourseRating(ctx, in.CourseID, in.Rating)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			return nil, shared.NewValidationError("rating", "Вы уже оставили отзыв на этот курс")
		}
		return nil, shared.NewPersistenceError("reviews: record review", err)
	}
	return review, nil
}

// ListForCourse returns one page of reviews plus pagination metadata.
func (s *Service) ListForCourse(ctx context.Context, courseID int64, order SortOrder, page, perPage int) ([]Review, shared.Pagination, error) {
	total, err := s.repo.CountByCourse(ctx, courseID)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pagination := shared.NewPagination(page, perPage, total)
	list, err := s.repo.ListByCourse(ctx, courseID, order, pagination)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, pagination, nil
}

// OwnReview returns the author's review of the course, nil when absent.
func (s *Service) OwnReview(ctx context.Context, courseID, userID int64) (*Review, error) {
	review, err := s.repo.LatestByAuthor(ctx, courseID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return review, nil
}
