package events

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const eventColumns = `e.id, e.title, e.description, e.event_date, e.location,
	e.volunteers_needed, COALESCE(e.image_name, ''), e.created_at,
	(SELECT COUNT(*) FROM registrations g WHERE g.event_id = e.id AND g.status = 'accepted')`

func scanEvent(row pgx.Row, event *Event) error {
	return row.Scan(&event.ID, &event.Title, &event.Description, &event.Date, &event.Location,
		&event.VolunteersNeeded, &event.ImageName, &event.CreatedAt, &event.AcceptedCount)
}

// ListEvents returns one page of events, nearest date first.
func (r *Repository) ListEvents(ctx context.Context, page shared.Pagination) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		ORDER BY e.event_date DESC
		LIMIT $1 OFFSET $2`, page.PerPage, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Event
	for rows.Next() {
		var event Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, err
		}
		list = append(list, event)
	}
	return list, rows.Err()
}

// CountEvents returns the total number of events.
func (r *Repository) CountEvents(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&total)
	return total, err
}

// GetEvent fetches one event by id.
func (r *Repository) GetEvent(ctx context.Context, id int64) (*Event, error) {
	var event Event
	err := scanEvent(r.pool.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		WHERE e.id = $1`, id), &event)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// InsertEvent stores a new event.
func (r *Repository) InsertEvent(ctx context.Context, event *Event) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO events (title, description, event_date, location, volunteers_needed, image_name, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NOW())
		RETURNING id, created_at`,
		event.Title, event.Description, event.Date, event.Location, event.VolunteersNeeded, event.ImageName,
	).Scan(&event.ID, &event.CreatedAt)
}

// UpdateEvent rewrites an event.
func (r *Repository) UpdateEvent(ctx context.Context, event *Event) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE events
		SET title = $1, description = $2, event_date = $3, location = $4,
		    volunteers_needed = $5, image_name = COALESCE(NULLIF($6, ''), image_name)
		WHERE id = $7`,
		event.Title, event.Description, event.Date, event.Location,
		event.VolunteersNeeded, event.ImageName, event.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteEvent removes an event; registrations go with it via FK cascade.
func (r *Repository) DeleteEvent(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// InsertRegistration files a volunteer application.
func (r *Repository) InsertRegistration(ctx context.Context, reg *Registration) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO registrations (event_id, user_id, contact_info, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`,
		reg.EventID, reg.UserID, reg.ContactInfo, reg.Status,
	).Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_registrations_event_user" {
			return ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

// ListRegistrations lists applications for an event, newest first. An empty
// status selects all of them.
func (r *Repository) ListRegistrations(ctx context.Context, eventID int64, status string) ([]Registration, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.event_id, g.user_id, g.contact_info, g.status, g.created_at,
		       u.last_name || ' ' || u.first_name
		FROM registrations g
		JOIN users u ON u.id = g.user_id
		WHERE g.event_id = $1 AND ($2 = '' OR g.status = $2)
		ORDER BY g.created_at DESC`, eventID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Registration
	for rows.Next() {
		var reg Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.ContactInfo, &reg.Status, &reg.CreatedAt, &reg.VolunteerName); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// GetRegistration fetches one application by id.
func (r *Repository) GetRegistration(ctx context.Context, id int64) (*Registration, error) {
	var reg Registration
	err := r.pool.QueryRow(ctx, `
		SELECT id, event_id, user_id, contact_info, status, created_at
		FROM registrations WHERE id = $1`, id).
		Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.ContactInfo, &reg.Status, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// FindRegistration fetches the application of one user for one event.
func (r *Repository) FindRegistration(ctx context.Context, eventID, userID int64) (*Registration, error) {
	var reg Registration
	err := r.pool.QueryRow(ctx, `
		SELECT id, event_id, user_id, contact_info, status, created_at
		FROM registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID).
		Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.ContactInfo, &reg.Status, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// UpdateRegistrationStatus moves an application to a new status.
func (r *Repository) UpdateRegistrationStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE registrations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
