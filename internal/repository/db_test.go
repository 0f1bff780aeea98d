package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWhereBuilder_NumbersPlaceholders(t *testing.T) {
	var where whereBuilder
	assert.Equal(t, "", where.sql())

	where.add("status=$%d", "NEW")
	where.add("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d)", likePattern("  Ana "))

	assert.Equal(t, " WHERE status=$1 AND (LOWER(name) LIKE $2 OR LOWER(email) LIKE $2)", where.sql())
	assert.Equal(t, []any{"NEW", "%ana%"}, where.args)
}

func TestPageBounds(t *testing.T) {
	limit, offset := pageBounds(0, -5, 10)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 0, offset)

	limit, offset = pageBounds(25, 50, 10)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 50, offset)
}

func TestExpectOne(t *testing.T) {
	assert.ErrorIs(t, expectOne(pgconn.NewCommandTag("DELETE 0"), nil), pgx.ErrNoRows)
	assert.NoError(t, expectOne(pgconn.NewCommandTag("DELETE 1"), nil))

	boom := errors.New("boom")
	assert.ErrorIs(t, expectOne(pgconn.CommandTag{}, boom), boom)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate")))
}
