package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs the account statements against a DBTX.
type Queries struct {
	db DBTX
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// User is a row of the users table.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userColumns = `id::text, email, password_hash, display_name, avatar_url, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	DisplayName  string
	AvatarURL    string
}

const createUser = `
INSERT INTO users (email, password_hash, display_name, avatar_url)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

// CreateUser inserts a user. A duplicate email fails with a unique violation.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, createUser, arg.Email, arg.PasswordHash, arg.DisplayName, arg.AvatarURL))
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return scanUser(q.db.QueryRow(ctx, getUserByID, parsed.String()))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

type UpdateUserProfileParams struct {
	ID          string
	DisplayName string
	AvatarURL   string
}

const updateUserProfile = `
UPDATE users
SET display_name = $2, avatar_url = $3, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	parsed, err := uuid.Parse(arg.ID)
	if err != nil {
		return User{}, ErrNotFound
	}
	return scanUser(q.db.QueryRow(ctx, updateUserProfile, parsed.String(), arg.DisplayName, arg.AvatarURL))
}

const updateUserPassword = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

func (q *Queries) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	tag, err := q.db.Exec(ctx, updateUserPassword, parsed.String(), passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExternalIdentity links a provider subject to a user.
type ExternalIdentity struct {
	Provider string
	Subject  string
	UserID   string
	Email    string
}

const getUserByExternalIdentity = `
SELECT u.id::text, u.email, u.password_hash, u.display_name, u.avatar_url, u.created_at, u.updated_at
FROM external_identities e
JOIN users u ON u.id = e.user_id
WHERE e.provider = $1 AND e.subject = $2`

func (q *Queries) GetUserByExternalIdentity(ctx context.Context, provider, subject string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByExternalIdentity, provider, subject))
}

const linkExternalIdentity = `
INSERT INTO external_identities (provider, subject, user_id, email)
VALUES ($1, $2, $3, $4)
ON CONFLICT (provider, subject) DO NOTHING`

// LinkExternalIdentity records the link; an existing link is left untouched.
func (q *Queries) LinkExternalIdentity(ctx context.Context, arg ExternalIdentity) error {
	_, err := q.db.Exec(ctx, linkExternalIdentity, arg.Provider, arg.Subject, arg.UserID, arg.Email)
	return err
}
