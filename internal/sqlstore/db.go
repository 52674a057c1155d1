// Package sqlstore persists the activity log and the reference directory
// over database/sql. SQLite (modernc.org/sqlite) is the default driver and
// MySQL/MariaDB (go-sql-driver/mysql) the alternative.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/rpggio/captionlog/migrations"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// DB wraps a database connection pool and remembers its dialect.
type DB struct {
	*sql.DB
	Driver string
}

// Open connects to the database named by driver and dsn.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite, "":
		return openSQLite(ctx, dsn)
	case DriverMySQL:
		return openMySQL(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// New opens a SQLite database.
func New(dataSourceName string) (*DB, error) {
	return openSQLite(context.Background(), dataSourceName)
}

func openSQLite(ctx context.Context, dsn string) (*DB, error) {
	memory := dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	full := dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

	db, err := sql.Open("sqlite", full)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// Each connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{DB: db, Driver: DriverSQLite}, nil
}

func openMySQL(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}
	return &DB{DB: db, Driver: DriverMySQL}, nil
}

// RunMigrations applies the embedded schema of the database's dialect.
// Already-applied files are skipped.
func (db *DB) RunMigrations(ctx context.Context) error {
	files, err := migrations.Files(db.Driver)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (name VARCHAR(255) PRIMARY KEY)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	for _, f := range files {
		var n int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, f.Name).Scan(&n); err != nil {
			return fmt.Errorf("failed to check migration %s: %w", f.Name, err)
		}
		if n > 0 {
			continue
		}
		for _, stmt := range f.Statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to run migration %s: %w", f.Name, err)
			}
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES (?)`, f.Name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", f.Name, err)
		}
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
