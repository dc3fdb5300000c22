package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-hub/campus-hub/internal/shared"
)

// ErrLoginTaken is returned when the login uniqueness constraint fires.
var ErrLoginTaken = errors.New("users: login taken")

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `u.id, u.login, u.last_name, u.first_name, COALESCE(u.middle_name, ''), u.role_id, r.name, u.created_at`

// ListUsers returns one page of users ordered by id.
func (r *Repository) ListUsers(ctx context.Context, page shared.Pagination) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u
		JOIN roles r ON r.id = u.role_id
		ORDER BY u.id
		LIMIT $1 OFFSET $2`, page.PerPage, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Login, &user.LastName, &user.FirstName, &user.MiddleName, &user.RoleID, &user.RoleName, &user.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	return list, rows.Err()
}

// CountUsers returns the total number of accounts.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	return total, err
}

// GetUser fetches one account by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`, id).Scan(&user.ID, &user.Login, &user.LastName, &user.FirstName, &user.MiddleName, &user.RoleID, &user.RoleName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// RoleByUserID resolves the role name for actor resolution.
func (r *Repository) RoleByUserID(ctx context.Context, userID int64) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, `
		SELECT r.name FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return role, nil
}

// InsertUser stores a new account.
func (r *Repository) InsertUser(ctx context.Context, user *User, passwordHash string) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (login, password_hash, last_name, first_name, middle_name, role_id, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NOW())
		RETURNING id, created_at`,
		user.Login, passwordHash, user.LastName, user.FirstName, user.MiddleName, user.RoleID,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return mapInsertError(err)
	}
	return nil
}

// mapInsertError translates the login uniqueness violation into ErrLoginTaken.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_users_login" {
		return ErrLoginTaken
	}
	return err
}

// UpdateUser rewrites name fields; login and password change elsewhere.
func (r *Repository) UpdateUser(ctx context.Context, user *User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET last_name = $1, first_name = $2, middle_name = NULLIF($3, '')
		WHERE id = $4`,
		user.LastName, user.FirstName, user.MiddleName, user.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateUserRole reassigns the account role.
func (r *Repository) UpdateUserRole(ctx context.Context, userID, roleID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role_id = $1 WHERE id = $2`, roleID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteUser removes an account.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
