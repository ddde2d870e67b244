package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// AdminDB is a pool authenticated with the service role. It bypasses row
// level security and must only be used behind an authorization gate.
type AdminDB struct {
	*sql.DB
	Driver string
}

// AnonDB is a pool authenticated with the anonymous role. On SQLite it is
// opened query-only.
type AnonDB struct {
	*sql.DB
	Driver string
}

// OpenAdmin opens the administrative pool. For sqlite3, dsn is a file path.
func OpenAdmin(ctx context.Context, driver, dsn string) (*AdminDB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = OpenPostgres(ctx, dsn, PoolOptions{})
	case DriverSQLite:
		db, err = OpenSQLite(dsn, "write", 0)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return &AdminDB{DB: db, Driver: driver}, nil
}

// OpenAnon opens the anonymous pool.
func OpenAnon(ctx context.Context, driver, dsn string) (*AnonDB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = OpenPostgres(ctx, dsn, PoolOptions{})
	case DriverSQLite:
		db, err = OpenSQLite(dsn, "read", 0)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return &AnonDB{DB: db, Driver: driver}, nil
}
