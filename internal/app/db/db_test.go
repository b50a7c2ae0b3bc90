package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noRow struct{ err error }

func (r noRow) Scan(...any) error { return r.err }

// stubDB fails every statement with err and counts calls.
type stubDB struct {
	err   error
	calls int
}

func (s *stubDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	s.calls++
	return pgconn.NewCommandTag("UPDATE 0"), s.err
}

func (s *stubDB) QueryRow(context.Context, string, ...any) pgx.Row {
	s.calls++
	return noRow{err: s.err}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestNoRowsMapsToNotFound(t *testing.T) {
	q := New(&stubDB{err: pgx.ErrNoRows})

	_, err := q.GetUserByEmail(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMalformedIDsNeverReachTheDatabase(t *testing.T) {
	stub := &stubDB{}
	q := New(stub)
	ctx := context.Background()

	_, err := q.GetUserByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = q.UpdateUserProfile(ctx, UpdateUserProfileParams{ID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, q.UpdateUserPassword(ctx, "nope", "hash"), ErrNotFound)
	assert.Zero(t, stub.calls)
}

func TestUpdateUserPasswordWithoutRows(t *testing.T) {
	q := New(&stubDB{})

	err := q.UpdateUserPassword(context.Background(), "6f1c1c9e-7d0f-4f3e-9a53-1c0b2f1f5a10", "hash")
	require.ErrorIs(t, err, ErrNotFound)
}
