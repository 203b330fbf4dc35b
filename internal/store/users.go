package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createUser = `
INSERT INTO users (email, password_hash, name, phone, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, email, password_hash, name, phone, role, created_at, updated_at
`

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        pgtype.Text
	Role         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Email, arg.PasswordHash, arg.Name, arg.Phone, arg.Role)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByEmail = `
SELECT id, email, password_hash, name, phone, role, created_at, updated_at
FROM users WHERE lower(email) = lower($1)
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByID = `
SELECT id, email, password_hash, name, phone, role, created_at, updated_at
FROM users WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const createSession = `
INSERT INTO sessions (user_id, refresh_token_hash, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, refresh_token_hash, expires_at, created_at
`

type CreateSessionParams struct {
	UserID           pgtype.UUID
	RefreshTokenHash string
	ExpiresAt        pgtype.Timestamptz
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRow(ctx, createSession, arg.UserID, arg.RefreshTokenHash, arg.ExpiresAt)
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

const getSessionByTokenHash = `
SELECT id, user_id, refresh_token_hash, expires_at, created_at
FROM sessions WHERE refresh_token_hash = $1 AND expires_at > now()
`

func (q *Queries) GetSessionByTokenHash(ctx context.Context, hash string) (Session, error) {
	row := q.db.QueryRow(ctx, getSessionByTokenHash, hash)
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

const rotateSessionToken = `
UPDATE sessions SET refresh_token_hash = $2, expires_at = $3 WHERE id = $1
RETURNING id, user_id, refresh_token_hash, expires_at, created_at
`

func (q *Queries) RotateSessionToken(ctx context.Context, id pgtype.UUID, hash string, expiresAt pgtype.Timestamptz) (Session, error) {
	row := q.db.QueryRow(ctx, rotateSessionToken, id, hash, expiresAt)
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

const deleteSessionByTokenHash = `DELETE FROM sessions WHERE refresh_token_hash = $1`

func (q *Queries) DeleteSessionByTokenHash(ctx context.Context, hash string) error {
	_, err := q.db.Exec(ctx, deleteSessionByTokenHash, hash)
	return err
}

const deleteSession = `DELETE FROM sessions WHERE id = $1`

func (q *Queries) DeleteSession(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteSession, id)
	return err
}

const deleteSessionsByUser = `DELETE FROM sessions WHERE user_id = $1`

func (q *Queries) DeleteSessionsByUser(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteSessionsByUser, userID)
	return err
}
