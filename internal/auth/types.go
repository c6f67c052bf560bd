package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrInvalidRefresh = errors.New("invalid refresh token")
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	TokenVersion int
	Status       string
	CreatedAt    time.Time
}

type MeResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore keeps the users table behind an interface so handlers can be
// tested without Postgres.
type UserStore interface {
	CreateUser(ctx context.Context, email, username, passwordHash string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id string) (User, error)
	UpdateUserPasswordHash(ctx context.Context, userID, newHash string) error
	// BumpTokenVersion revokes every token issued to userID so far and
	// returns the new version.
	BumpTokenVersion(ctx context.Context, userID string) (int, error)
}

// Sessions is the refresh-token allowlist.
type Sessions interface {
	Issue(ctx context.Context, userID string, tokenVersion int) (string, error)
	Lookup(ctx context.Context, token string) (userID string, tokenVersion int, err error)
	Revoke(ctx context.Context, token string) error
}
