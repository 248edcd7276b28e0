package database_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskboard-api/internal/platform/database"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"pg unique", &pgconn.PgError{Code: "23505"}, store.ErrDuplicate},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, store.ErrInvalidEntity},
		{"pg check", &pgconn.PgError{Code: "23514"}, store.ErrInvalidEntity},
		{"pg not null", &pgconn.PgError{Code: "23502"}, store.ErrInvalidEntity},
		{"sqlite unique message", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), store.ErrDuplicate},
		{"sqlite foreign key message", fmt.Errorf("exec: %w", errors.New("FOREIGN KEY constraint failed (787)")), store.ErrInvalidEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, database.MapError(tt.in), tt.want)
		})
	}

	assert.NoError(t, database.MapError(nil))
	plain := errors.New("connection reset")
	assert.Equal(t, plain, database.MapError(plain))
}

func TestViolationHelpers(t *testing.T) {
	assert.True(t, database.IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, database.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, database.IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, database.IsUniqueViolation(nil))
}
