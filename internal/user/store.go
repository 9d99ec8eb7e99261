// Package user holds plain account CRUD: registration, password checks and
// profile updates. Nothing here participates in recipe matching.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// User is a stored account. The password hash never serializes.
type User struct {
	ID                string    `json:"id" db:"id"`
	Username          string    `json:"username" db:"username"`
	Email             string    `json:"email" db:"email"`
	DietaryPreference string    `json:"dietary_preference" db:"dietary_preference"`
	PasswordHash      string    `json:"-" db:"password_hash"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// Store defines the account operations the API layer needs.
type Store interface {
	Register(ctx context.Context, username, email, password, dietaryPreference string) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateProfile(ctx context.Context, username, email, dietaryPreference string) (*User, error)
}

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore prepares the users table on the given connection.
func NewPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT,
		dietary_preference TEXT,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Register creates an account with a bcrypt-hashed password.
func (s *PostgresStore) Register(ctx context.Context, username, email, password, dietaryPreference string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		ID:                uuid.NewString(),
		Username:          username,
		Email:             email,
		DietaryPreference: dietaryPreference,
		PasswordHash:      string(hash),
		CreatedAt:         time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, dietary_preference, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.Email, u.DietaryPreference, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

// Authenticate verifies a username/password pair.
func (s *PostgresStore) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByUsername retrieves an account, or nil when the username is unknown.
func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u,
		`SELECT id, username, email, dietary_preference, password_hash, created_at
		 FROM users WHERE username = $1`, username,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UpdateProfile updates the mutable profile fields, returning the updated
// account or nil when the username is unknown.
func (s *PostgresStore) UpdateProfile(ctx context.Context, username, email, dietaryPreference string) (*User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET email = $2, dietary_preference = $3 WHERE username = $1`,
		username, email, dietaryPreference,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetByUsername(ctx, username)
}
