package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/castlemere/estately/internal/model"
)

type CreateUserParams struct {
	UserID   pgtype.UUID
	Username string
	Email    string
	Avatar   string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	const query = `
		INSERT INTO users (user_id, username, email, avatar)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id, username, email, avatar, created_at`

	var (
		id        pgtype.UUID
		u         model.User
		createdAt pgtype.Timestamptz
	)
	err := q.db.QueryRow(ctx, query, arg.UserID, arg.Username, arg.Email, arg.Avatar).
		Scan(&id, &u.Username, &u.Email, &u.Avatar, &createdAt)
	if err != nil {
		return model.User{}, fmt.Errorf("store: create user: %w", err)
	}
	u.ID = uuid.UUID(id.Bytes)
	u.CreatedAt = createdAt.Time
	return u, nil
}

func (q *Queries) GetUserByID(ctx context.Context, userID pgtype.UUID) (model.User, error) {
	const query = `
		SELECT user_id, username, email, avatar, created_at
		FROM users
		WHERE user_id = $1`

	var (
		id        pgtype.UUID
		u         model.User
		createdAt pgtype.Timestamptz
	)
	err := q.db.QueryRow(ctx, query, userID).
		Scan(&id, &u.Username, &u.Email, &u.Avatar, &createdAt)
	if err != nil {
		return model.User{}, wrapNotFound("store: get user by id", err)
	}
	u.ID = uuid.UUID(id.Bytes)
	u.CreatedAt = createdAt.Time
	return u, nil
}

// UserWithPassword joins the account record with its current password hash.
type UserWithPassword struct {
	User           model.User
	HashedPassword string
}

func (q *Queries) GetUserWithPasswordByEmail(ctx context.Context, email string) (UserWithPassword, error) {
	const query = `
		SELECT u.user_id, u.username, u.email, u.avatar, u.created_at, p.hashed_password
		FROM users u
		JOIN passwords p ON p.user_id = u.user_id
		WHERE u.email = $1`

	var (
		id        pgtype.UUID
		row       UserWithPassword
		createdAt pgtype.Timestamptz
	)
	err := q.db.QueryRow(ctx, query, email).
		Scan(&id, &row.User.Username, &row.User.Email, &row.User.Avatar, &createdAt, &row.HashedPassword)
	if err != nil {
		return UserWithPassword{}, wrapNotFound("store: get user by email", err)
	}
	row.User.ID = uuid.UUID(id.Bytes)
	row.User.CreatedAt = createdAt.Time
	return row, nil
}

type CreatePasswordParams struct {
	UserID         pgtype.UUID
	HashedPassword string
	CreatedAt      pgtype.Timestamptz
}

func (q *Queries) CreatePassword(ctx context.Context, arg CreatePasswordParams) error {
	const query = `
		INSERT INTO passwords (user_id, hashed_password, created_at)
		VALUES ($1, $2, $3)`

	if _, err := q.db.Exec(ctx, query, arg.UserID, arg.HashedPassword, arg.CreatedAt); err != nil {
		return fmt.Errorf("store: create password: %w", err)
	}
	return nil
}

type CreateRefreshTokenParams struct {
	Token     string
	UserID    pgtype.UUID
	CreatedAt pgtype.Timestamptz
	ExpiresAt pgtype.Timestamptz
}

// RefreshToken is a stored refresh-token row.
type RefreshToken struct {
	Token     string
	UserID    pgtype.UUID
	ExpiresAt pgtype.Timestamptz
}

func (q *Queries) CreateRefreshToken(ctx context.Context, arg CreateRefreshTokenParams) (RefreshToken, error) {
	const query = `
		INSERT INTO refresh_tokens (token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING token, user_id, expires_at`

	var row RefreshToken
	err := q.db.QueryRow(ctx, query, arg.Token, arg.UserID, arg.CreatedAt, arg.ExpiresAt).
		Scan(&row.Token, &row.UserID, &row.ExpiresAt)
	if err != nil {
		return RefreshToken{}, fmt.Errorf("store: create refresh token: %w", err)
	}
	return row, nil
}

// GetUserFromRefreshTok resolves a non-expired refresh token to its row.
func (q *Queries) GetUserFromRefreshTok(ctx context.Context, token string) (RefreshToken, error) {
	const query = `
		SELECT token, user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND expires_at > now()`

	var row RefreshToken
	err := q.db.QueryRow(ctx, query, token).Scan(&row.Token, &row.UserID, &row.ExpiresAt)
	if err != nil {
		return RefreshToken{}, wrapNotFound("store: get user from refresh token", err)
	}
	return row, nil
}

// DoesRefreshTokenExist reports whether a live refresh token is on record.
func (q *Queries) DoesRefreshTokenExist(ctx context.Context, token string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM refresh_tokens
			WHERE token = $1 AND expires_at > now()
		)`

	var exists bool
	if err := q.db.QueryRow(ctx, query, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("store: refresh token exists: %w", err)
	}
	return exists, nil
}

func (q *Queries) RevokeRefreshToken(ctx context.Context, token string) error {
	if _, err := q.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("store: revoke refresh token: %w", err)
	}
	return nil
}
