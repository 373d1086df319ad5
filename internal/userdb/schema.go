package userdb

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var usersTableSQL string

// usersMigrations upgrade the users table one version at a time. Entry i
// moves a database from user_version i to i+1.
var usersMigrations = []string{
	usersTableSQL,
	"ALTER TABLE users ADD COLUMN department TEXT NOT NULL DEFAULT ''",
}

// ErrSchemaMismatch indicates the user database was written by a newer build.
var ErrSchemaMismatch = errors.New("user database schema is newer than supported")

func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read users schema version: %w", err)
	}
	latest := len(usersMigrations)
	if version > latest {
		return fmt.Errorf("%w: %s has users version %d, this build knows %d",
			ErrSchemaMismatch, s.path, version, latest)
	}
	for ; version < latest; version++ {
		if err := s.migrateUsers(ctx, version); err != nil {
			return err
		}
	}
	return nil
}

// migrateUsers applies one users table migration and bumps user_version in
// the same transaction.
func (s *Store) migrateUsers(ctx context.Context, from int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin users migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, usersMigrations[from]); err != nil {
		return fmt.Errorf("migrate users table to version %d: %w", from+1, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", from+1)); err != nil {
		return fmt.Errorf("record users version %d: %w", from+1, err)
	}
	return tx.Commit()
}
