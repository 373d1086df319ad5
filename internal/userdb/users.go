package userdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"variantshare/internal/services"
)

// User is a directory entry.
type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Department string    `json:"department,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

const userColumns = "id, email, name, department, created_at, updated_at"

// NormalizeEmail validates and lower-cases an address.
func NormalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", services.Wrap(services.ErrValidation, "userdb", "normalize", "email required", nil)
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "userdb", "normalize", fmt.Sprintf("invalid email %q", raw), err)
	}
	return strings.ToLower(addr.Address), nil
}

// FindByEmail returns the user with the given address, or nil when none exists.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+userColumns+" FROM users WHERE email = ?", normalized)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// Upsert inserts a user or updates the name and department of an existing one.
func (s *Store) Upsert(ctx context.Context, user User) (*User, error) {
	email, err := NormalizeEmail(user.Email)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.execWithRetry(ctx, `INSERT INTO users (email, name, department, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(email) DO UPDATE SET name = excluded.name, department = excluded.department, updated_at = excluded.updated_at`,
		email, strings.TrimSpace(user.Name), strings.TrimSpace(user.Department), now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.FindByEmail(ctx, email)
}

// List returns all users ordered by email.
func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), "SELECT "+userColumns+" FROM users ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// Delete removes a user and reports whether one existed.
func (s *Store) Delete(ctx context.Context, email string) (bool, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return false, err
	}
	res, err := s.execWithRetry(ctx, "DELETE FROM users WHERE email = ?", normalized)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*User, error) {
	var (
		user             User
		created, updated string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Department, &created, &updated); err != nil {
		return nil, err
	}
	user.CreatedAt = parseTime(created)
	user.UpdatedAt = parseTime(updated)
	return &user, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
