package visitlogs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-hub/campus-hub/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertVisit records one page view.
func (r *Repository) InsertVisit(ctx context.Context, path string, userID *int64) error {
	var user pgtype.Int8
	if userID != nil {
		user = pgtype.Int8{Int64: *userID, Valid: true}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO visit_logs (path, user_id, created_at) VALUES ($1, $2, NOW())`, path, user)
	return err
}

// ListVisits returns one page of the journal, newest first. A non-nil
// onlyUserID narrows it to that user's visits.
func (r *Repository) ListVisits(ctx context.Context, page shared.Pagination, onlyUserID *int64) ([]Visit, error) {
	var filter pgtype.Int8
	if onlyUserID != nil {
		filter = pgtype.Int8{Int64: *onlyUserID, Valid: true}
	}
	rows, err := r.pool.Query(ctx, `
		SELECT v.id, v.path, v.user_id, v.created_at,
		       COALESCE(u.last_name || ' ' || u.first_name, '')
		FROM visit_logs v
		LEFT JOIN users u ON u.id = v.user_id
		WHERE $1::bigint IS NULL OR v.user_id = $1
		ORDER BY v.created_at DESC
		LIMIT $2 OFFSET $3`, filter, page.PerPage, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Visit
	for rows.Next() {
		var visit Visit
		if err := rows.Scan(&visit.ID, &visit.Path, &visit.UserID, &visit.CreatedAt, &visit.UserName); err != nil {
			return nil, err
		}
		list = append(list, visit)
	}
	return list, rows.Err()
}

// CountVisits counts journal rows, optionally for one user.
func (r *Repository) CountVisits(ctx context.Context, onlyUserID *int64) (int, error) {
	var filter pgtype.Int8
	if onlyUserID != nil {
		filter = pgtype.Int8{Int64: *onlyUserID, Valid: true}
	}
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM visit_logs WHERE $1::bigint IS NULL OR user_id = $1`, filter).Scan(&total)
	return total, err
}

// PageStats aggregates visits per path, most visited first.
func (r *Repository) PageStats(ctx context.Context) ([]PageStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT path, COUNT(*) AS visits
		FROM visit_logs
		GROUP BY path
		ORDER BY visits DESC, path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PageStat
	for rows.Next() {
		var stat PageStat
		if err := rows.Scan(&stat.Path, &stat.Count); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// UserStats aggregates visits per user, most active first.
func (r *Repository) UserStats(ctx context.Context) ([]UserStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT v.user_id, COALESCE(u.last_name || ' ' || u.first_name, ''), COUNT(*) AS visits
		FROM visit_logs v
		LEFT JOIN users u ON u.id = v.user_id
		GROUP BY v.user_id, u.last_name, u.first_name
		ORDER BY visits DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []UserStat
	for rows.Next() {
		var stat UserStat
		if err := rows.Scan(&stat.UserID, &stat.UserName, &stat.Count); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// DeleteOlderThan removes journal rows older than the cutoff and reports how
// many went away.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM visit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
