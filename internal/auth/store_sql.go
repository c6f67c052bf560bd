package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{DB: db} }

const userCols = `id::text, email, username, password_hash, COALESCE(token_version,1), status, created_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.TokenVersion, &u.Status, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *SQLStore) CreateUser(ctx context.Context, email, username, passwordHash string) (User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, `
		INSERT INTO public.users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userCols, email, username, passwordHash))
	var pg *pgconn.PgError
	if errors.As(err, &pg) && pg.Code == "23505" {
		return User{}, ErrEmailTaken
	}
	return u, err
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM public.users WHERE email = $1 LIMIT 1`, email))
}

func (s *SQLStore) FindUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM public.users WHERE id = $1 LIMIT 1`, id))
}

func (s *SQLStore) UpdateUserPasswordHash(ctx context.Context, userID, newHash string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE public.users SET password_hash = $1, updated_at = now() WHERE id = $2`, newHash, userID)
	return err
}

func (s *SQLStore) BumpTokenVersion(ctx context.Context, userID string) (int, error) {
	var tv int
	err := s.DB.QueryRowContext(ctx, `
		UPDATE public.users
		SET token_version = COALESCE(token_version,1) + 1, updated_at = now()
		WHERE id = $1
		RETURNING token_version`, userID).Scan(&tv)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return tv, err
}

// TokenVersion backs middlewares.RequireAuth.
func (s *SQLStore) TokenVersion(ctx context.Context, userID string) (int, error) {
	var tv int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(token_version,1) FROM public.users WHERE id = $1`, userID).Scan(&tv)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return tv, err
}
