package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openvol/portal-api/internal/models"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_admin INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
)`

// UserRepository provides database access for account management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository, ensuring the
// schema exists.
func NewUserRepository(db *sqlx.DB) (*UserRepository, error) {
	if _, err := db.Exec(usersSchema); err != nil {
		return nil, fmt.Errorf("ensure users schema: %w", err)
	}
	return &UserRepository{db: db}, nil
}

// FindByEmail returns a user by normalised email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, first_name, last_name, email, password_hash, is_admin, created_at FROM users WHERE email = ? LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, normalizeEmail(email)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, first_name, last_name, email, password_hash, is_admin, created_at FROM users WHERE id = ? LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts a new user. The email is stored lowercased.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Email = normalizeEmail(user.Email)

	const query = `INSERT INTO users (id, first_name, last_name, email, password_hash, is_admin, created_at) VALUES (:id, :first_name, :last_name, :email, :password_hash, :is_admin, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SetAdmin flips the admin flag for the user with the given email. Returns
// sql.ErrNoRows when no such account exists.
func (r *UserRepository) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	const query = `UPDATE users SET is_admin = ? WHERE email = ?`
	res, err := r.db.ExecContext(ctx, query, isAdmin, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set admin rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
