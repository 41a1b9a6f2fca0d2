package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"sentinel/internal/models"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

// Repository runs user queries against the database.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, email, username, full_name, hashed_password, is_active, is_superuser, created_at, updated_at`

// InsertUser stores u and fills in its ID. Username and email must be unique.
func (r *Repository) InsertUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO users
		(email, username, full_name, hashed_password, is_active, is_superuser, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.Username, u.FullName, u.HashedPassword, u.IsActive, u.IsSuperuser, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user id: %w", err)
	}
	u.ID = id
	return nil
}

// UserByUsername looks a user up by exact username.
func (r *Repository) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// UserByEmail looks a user up by email, ignoring case.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`, email)
}

// SetPassword replaces the stored hash for username.
func (r *Repository) SetPassword(ctx context.Context, username, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET hashed_password = ?, updated_at = ? WHERE username = ?`,
		hash, time.Now().UTC(), username)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns all users ordered by id.
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// CountUsers returns the number of stored users.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *Repository) queryUser(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		u       models.User
		updated sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.HashedPassword,
		&u.IsActive, &u.IsSuperuser, &u.CreatedAt, &updated); err != nil {
		return nil, err
	}
	if updated.Valid {
		t := updated.Time
		u.UpdatedAt = &t
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
