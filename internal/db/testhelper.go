package db

import (
	"context"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens an admin/anon pool pair on a file in t.TempDir(),
// runs all migrations through the admin pool, and registers cleanup.
func OpenTestSQLite(t *testing.T) (*AdminDB, *AnonDB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.sqlite")
	ctx := context.Background()

	admin, err := OpenAdmin(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("open test sqlite (admin): %v", err)
	}
	t.Cleanup(func() { _ = admin.Close() })

	if err := RunMigrations(ctx, admin); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	anon, err := OpenAnon(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("open test sqlite (anon): %v", err)
	}
	t.Cleanup(func() { _ = anon.Close() })

	return admin, anon
}
