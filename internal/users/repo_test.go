package users

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapInsertError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_login"}
	assert.ErrorIs(t, mapInsertError(dup), ErrLoginTaken)

	// The driver may surface the error wrapped.
	wrapped := fmt.Errorf("insert: %w", dup)
	assert.ErrorIs(t, mapInsertError(wrapped), ErrLoginTaken)

	other := &pgconn.PgError{Code: "23503", ConstraintName: "fk_users_role"}
	assert.NotErrorIs(t, mapInsertError(other), ErrLoginTaken)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapInsertError(plain))
}
