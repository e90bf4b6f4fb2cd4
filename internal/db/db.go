// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

package db // import "github.com/toeirei/gitswitch/internal/db"

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var (
	//go:embed migrations
	embeddedMigrations embed.FS
	// sqlOpenFunc allows tests to override database opening behavior.
	sqlOpenFunc = sql.Open
)

// SupportedTypes lists the accepted values for the database.type setting.
var SupportedTypes = []string{"sqlite", "postgres", "mysql"}

// NewStoreFromDSN opens the database, runs migrations and returns a BunStore.
func NewStoreFromDSN(dbType, dsn string) (*BunStore, error) {
	driverName := dbType
	switch dbType {
	case "sqlite":
		if err := ensureSqliteDir(dsn); err != nil {
			return nil, err
		}
	case "postgres":
		// The pgx stdlib registers driver name "pgx".
		driverName = "pgx"
	case "mysql":
	default:
		return nil, fmt.Errorf("unsupported database type: '%s' (supported: %s)", dbType, strings.Join(SupportedTypes, ", "))
	}

	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer, and in-memory databases are private to
	// their connection; one connection keeps both cases consistent.
	if dbType == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}
	dbLogf("opened %s driver in %s", driverName, time.Since(start))

	migStart := time.Now()
	if err := RunMigrations(sqlDB, dbType); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	dbLogf("migrations for %s completed in %s", dbType, time.Since(migStart))

	return &BunStore{db: createBunDB(sqlDB, dbType), dbType: dbType}, nil
}

// ensureSqliteDir creates the parent directory of a file-backed SQLite DSN.
func ensureSqliteDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create database directory %s: %w", dir, err)
	}
	return nil
}

// createBunDB constructs a *bun.DB for the provided *sql.DB and dbType.
func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case "postgres":
		return bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// RunMigrations applies the embedded migrations for dbType that have not been
// recorded in schema_migrations yet. Each migration runs in its own transaction.
func RunMigrations(db *sql.DB, dbType string) error {
	migrationsPath := path.Join("migrations", dbType)

	entries, err := fs.ReadDir(embeddedMigrations, migrationsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read embedded migrations (%s): %w", migrationsPath, err)
	}

	var ups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	if err := ensureSchemaMigrationsTable(db, dbType); err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	selectQuery := "SELECT 1 FROM schema_migrations WHERE version = ?"
	insertQuery := "INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)"
	if dbType == "postgres" {
		selectQuery = "SELECT 1 FROM schema_migrations WHERE version = $1"
		insertQuery = "INSERT INTO schema_migrations(version, applied_at) VALUES($1, $2)"
	}

	for _, fname := range ups {
		version := strings.TrimSuffix(fname, ".up.sql")

		var exists int
		err := db.QueryRow(selectQuery, version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check migration version %s: %w", version, err)
		}

		p := path.Join(migrationsPath, fname)
		data, err := embeddedMigrations.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", p, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", version, err)
		}
		for _, stmt := range splitStatements(string(data)) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("failed to execute migration %s: %w", version, err)
			}
		}
		if _, err := tx.Exec(insertQuery, version, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", version, err)
		}
		dbLogf("applied migration %s", version)
	}

	return nil
}

// splitStatements breaks a migration file into single statements; the MySQL
// driver rejects multi-statement Exec calls unless the DSN opts in.
func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ensureSchemaMigrationsTable creates schema_migrations if missing.
func ensureSchemaMigrationsTable(db *sql.DB, dbType string) error {
	// MySQL cannot index TEXT without a length.
	ddl := `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP)`
	if dbType == "mysql" {
		ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (version VARCHAR(191) PRIMARY KEY, applied_at TIMESTAMP)`
	}
	_, err := db.ExecContext(context.Background(), ddl)
	return err
}
