package testsupport

import (
	"testing"

	"variantshare/internal/config"
	"variantshare/internal/userdb"
)

// MustOpenUserDB opens a userdb.Store for tests and registers cleanup.
func MustOpenUserDB(t testing.TB, cfg *config.Config) *userdb.Store {
	t.Helper()

	store, err := userdb.Open(cfg)
	if err != nil {
		t.Fatalf("userdb.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
