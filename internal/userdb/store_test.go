package userdb_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"variantshare/internal/services"
	"variantshare/internal/testsupport"
	"variantshare/internal/userdb"
)

func TestUpsertAndFind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenUserDB(t, cfg)
	ctx := context.Background()

	created, err := store.Upsert(ctx, userdb.User{Email: "Ops@Example.com", Name: "Ops Team"})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if created.ID == 0 || created.Email != "ops@example.com" {
		t.Fatalf("unexpected user: %#v", created)
	}

	found, err := store.FindByEmail(ctx, "OPS@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if found == nil || found.ID != created.ID || found.Name != "Ops Team" {
		t.Fatalf("unexpected lookup result: %#v", found)
	}

	updated, err := store.Upsert(ctx, userdb.User{Email: "ops@example.com", Name: "Operations", Department: "Finance"})
	if err != nil {
		t.Fatalf("Upsert update failed: %v", err)
	}
	if updated.ID != created.ID || updated.Name != "Operations" || updated.Department != "Finance" {
		t.Fatalf("expected in-place update, got %#v", updated)
	}
}

func TestFindMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenUserDB(t, testsupport.NewConfig(t))
	user, err := store.FindByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %#v", user)
	}
}

func TestInvalidEmailIsValidationError(t *testing.T) {
	store := testsupport.MustOpenUserDB(t, testsupport.NewConfig(t))
	for _, email := range []string{"", "not-an-address"} {
		if _, err := store.FindByEmail(context.Background(), email); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", email, err)
		}
	}
}

func TestListAndDelete(t *testing.T) {
	store := testsupport.MustOpenUserDB(t, testsupport.NewConfig(t))
	ctx := context.Background()
	for _, email := range []string{"b@example.com", "a@example.com"} {
		if _, err := store.Upsert(ctx, userdb.User{Email: email}); err != nil {
			t.Fatalf("Upsert %s: %v", email, err)
		}
	}
	users, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 2 || users[0].Email != "a@example.com" {
		t.Fatalf("unexpected list: %#v", users)
	}

	removed, err := store.Delete(ctx, "a@example.com")
	if err != nil || !removed {
		t.Fatalf("Delete: removed=%v err=%v", removed, err)
	}
	removed, err = store.Delete(ctx, "a@example.com")
	if err != nil || removed {
		t.Fatalf("second Delete: removed=%v err=%v", removed, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := userdb.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.Upsert(context.Background(), userdb.User{Email: "keep@example.com"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	_ = store.Close()

	reopened := testsupport.MustOpenUserDB(t, cfg)
	user, err := reopened.FindByEmail(context.Background(), "keep@example.com")
	if err != nil || user == nil {
		t.Fatalf("expected persisted user, got %#v err=%v", user, err)
	}
}

func seedUsersDB(t *testing.T, version int, statements ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	return path
}

func TestOpenMigratesVersionOneUsersTable(t *testing.T) {
	path := seedUsersDB(t, 1,
		"CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, email TEXT NOT NULL UNIQUE, name TEXT NOT NULL DEFAULT '', created_at TEXT NOT NULL, updated_at TEXT NOT NULL)",
		"INSERT INTO users (email, name, created_at, updated_at) VALUES ('old@example.com', 'Old', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')",
	)
	store, err := userdb.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	user, err := store.FindByEmail(ctx, "old@example.com")
	if err != nil || user == nil || user.Name != "Old" || user.Department != "" {
		t.Fatalf("expected migrated user, got %#v err=%v", user, err)
	}
	updated, err := store.Upsert(ctx, userdb.User{Email: "old@example.com", Name: "Old", Department: "Audit"})
	if err != nil || updated.Department != "Audit" {
		t.Fatalf("expected department column after migration, got %#v err=%v", updated, err)
	}
}

func TestOpenRejectsNewerUsersSchema(t *testing.T) {
	path := seedUsersDB(t, 99)
	_, err := userdb.OpenPath(path)
	if !errors.Is(err, userdb.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
