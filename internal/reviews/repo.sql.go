package reviews

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-hub/campus-hub/internal/platform/db"
	"github.com/campus-hub/campus-hub/internal/shared"
)

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// WithTx runs fn inside one database transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

// ListByCourse returns one page of reviews for the course.
func (r *PGRepository) ListByCourse(ctx context.Context, courseID int64, order SortOrder, page shared.Pagination) ([]Review, error) {
	orderBy := "r.created_at DESC"
	switch order {
	case SortPositive:
		orderBy = "r.rating DESC, r.created_at DESC"
	case SortNegative:
		orderBy = "r.rating ASC, r.created_at DESC"
	}
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.course_id, r.user_id, r.rating, r.text, r.created_at,
		       u.last_name || ' ' || u.first_name AS author
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.course_id = $1
		ORDER BY `+orderBy+`
		LIMIT $2 OFFSET $3`, courseID, page.PerPage, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Review
	for rows.Next() {
		var review Review
		if err := rows.Scan(&review.ID, &review.CourseID, &review.UserID, &review.Rating, &review.Text, &review.CreatedAt, &review.AuthorName); err != nil {
			return nil, err
		}
		list = append(list, review)
	}
	return list, rows.Err()
}

// CountByCourse returns the number of reviews for the course.
func (r *PGRepository) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE course_id = $1`, courseID).Scan(&total)
	return total, err
}

// LatestByAuthor returns the author's newest review for the course.
func (r *PGRepository) LatestByAuthor(ctx context.Context, courseID, userID int64) (*Review, error) {
	var review Review
	err := r.pool.QueryRow(ctx, `
		SELECT id, course_id, user_id, rating, text, created_at
		FROM reviews
		WHERE course_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT 1`, courseID, userID).Scan(&review.ID, &review.CourseID, &review.UserID, &review.Rating, &review.Text, &review.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

var _ Repository = (*PGRepository)(nil)

type pgTxRepository struct {
	tx pgx.Tx
}

func (r *pgTxRepository) InsertReview(ctx context.Context, review *Review) error {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO reviews (course_id, user_id, rating, text, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`,
		review.CourseID, review.UserID, review.Rating, review.Text,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_reviews_course_user" {
			return ErrAlreadyReviewed
		}
		return err
	}
	return nil
}

// AddCourseRating bumps the aggregate pair in place. The increment happens
// inside SQL so concurrent reviews never lose updates.
func (r *pgTxRepository) AddCourseRating(ctx context.Context, courseID int64, rating int) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE courses
		SET rating_sum = rating_sum + $1, rating_num = rating_num + 1
		WHERE id = $2`, rating, courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
