package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/db"
)

// User is the persisted account model.
type User struct {
	ID           uuid.UUID
	UserName     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store persists user accounts.
type Store struct {
	DB db.DBTX
}

// GetByUserName fetches a user by login name.
func (s *Store) GetByUserName(ctx context.Context, userName string) (User, error) {
	var u User
	err := s.DB.QueryRow(ctx, `
		SELECT id, user_name, password_hash, role, created_at, updated_at
		FROM users WHERE user_name = $1`, userName,
	).Scan(&u.ID, &u.UserName, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return User{}, common.NewAppError("NOT_FOUND", "user not found", http.StatusNotFound, err)
		}
		return User{}, err
	}
	return u, nil
}

// GetByID fetches a user by identifier.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := s.DB.QueryRow(ctx, `
		SELECT id, user_name, password_hash, role, created_at, updated_at
		FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.UserName, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return User{}, common.NewAppError("NOT_FOUND", "user not found", http.StatusNotFound, err)
		}
		return User{}, err
	}
	return u, nil
}

// Create inserts a new user account.
func (s *Store) Create(ctx context.Context, userName, passwordHash, role string) (User, error) {
	var u User
	err := s.DB.QueryRow(ctx, `
		INSERT INTO users (user_name, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, user_name, password_hash, role, created_at, updated_at`,
		userName, passwordHash, role,
	).Scan(&u.ID, &u.UserName, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, common.NewAppError("CONFLICT", "user name is already taken", http.StatusConflict, err)
		}
		return User{}, err
	}
	return u, nil
}
