package courses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

const courseColumns = `c.id, c.name, c.short_desc, c.full_desc, c.rating_sum, c.rating_num,
	c.category_id, c.author_id, c.image_name, c.created_at,
	cat.name AS category_name, u.last_name || ' ' || u.first_name AS author_name`

func (r *PGRepository) filterClause(filter SearchFilter) (string, []any) {
	clauses := []string{"TRUE"}
	var args []any
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		clauses = append(clauses, fmt.Sprintf("c.name ILIKE $%d", len(args)))
	}
	if len(filter.CategoryIDs) > 0 {
		args = append(args, filter.CategoryIDs)
		clauses = append(clauses, fmt.Sprintf("c.category_id = ANY($%d)", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

// List returns one catalog page newest-first.
func (r *PGRepository) List(ctx context.Context, filter SearchFilter, page shared.Pagination) ([]Course, error) {
	where, args := r.filterClause(filter)
	args = append(args, page.PerPage, page.Offset())
	query := fmt.Sprintf(`
		SELECT %s
		FROM courses c
		JOIN categories cat ON cat.id = c.category_id
		JOIN users u ON u.id = c.author_id
		WHERE %s
		ORDER BY c.created_at DESC
		LIMIT $%d OFFSET $%d`, courseColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *course)
	}
	return list, rows.Err()
}

// Count returns the catalog size under the filter.
func (r *PGRepository) Count(ctx context.Context, filter SearchFilter) (int, error) {
	where, args := r.filterClause(filter)
	var total int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM courses c WHERE "+where, args...).Scan(&total)
	return total, err
}

// Get fetches a course by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Course, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s
		FROM courses c
		JOIN categories cat ON cat.id = c.category_id
		JOIN users u ON u.id = c.author_id
		WHERE c.id = $1`, courseColumns), id)
	course, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return course, nil
}

// Insert stores a new course with a zeroed rating aggregate.
func (r *PGRepository) Insert(ctx context.Context, course *Course) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO courses (name, short_desc, full_desc, category_id, author_id, image_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`,
		course.Name, course.ShortDesc, course.FullDesc, course.CategoryID, course.AuthorID, course.ImageName,
	).Scan(&course.ID, &course.CreatedAt)
}

// Update rewrites descriptive fields only; the rating aggregate is owned by
// the review transaction.
func (r *PGRepository) Update(ctx context.Context, course *Course) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE courses
		SET name = $1, short_desc = $2, full_desc = $3, category_id = $4
		WHERE id = $5`,
		course.Name, course.ShortDesc, course.FullDesc, course.CategoryID, course.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a course by id.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *PGRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name); err != nil {
			return nil, err
		}
		list = append(list, cat)
	}
	return list, rows.Err()
}

func scanCourse(row pgx.Row) (*Course, error) {
	var course Course
	err := row.Scan(
		&course.ID, &course.Name, &course.ShortDesc, &course.FullDesc,
		&course.RatingSum, &course.RatingNum, &course.CategoryID, &course.AuthorID,
		&course.ImageName, &course.CreatedAt, &course.CategoryName, &course.AuthorName,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

var _ Repository = (*PGRepository)(nil)
