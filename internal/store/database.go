// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrations embed.FS

// Driver names as registered with database/sql.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// DBConfig holds connection pool options.
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns sensible pool defaults.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// SQLiteDSN builds a modernc.org/sqlite DSN with the pragmas applied to every pooled connection.
func SQLiteDSN(path string) string {
	return "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_time_format=sqlite"
}

// MySQLParams describes a MySQL connection.
type MySQLParams struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	Charset  string
}

// MySQLDSN builds a go-sql-driver/mysql DSN. Times are parsed into time.Time in UTC.
func MySQLDSN(p MySQLParams) string {
	cfg := mysql.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	cfg.DBName = p.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if p.Charset != "" {
		cfg.Params = map[string]string{"charset": p.Charset}
	}
	return cfg.FormatDSN()
}

// NewDB opens a database connection for the given driver and verifies it.
func NewDB(driver, dsn string) (*sql.DB, error) {
	return NewDBWithConfig(driver, dsn, DefaultDBConfig())
}

// NewDBWithConfig opens a database connection with custom pool configuration.
func NewDBWithConfig(driver, dsn string, cfg DBConfig) (*sql.DB, error) {
	if driver != DriverSQLite && driver != DriverMySQL {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// gooseDialect maps a database/sql driver name to the goose dialect.
func gooseDialect(driver string) (string, error) {
	switch driver {
	case DriverSQLite, "sqlite3":
		return "sqlite3", nil
	case DriverMySQL:
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate runs all pending migrations for the given driver.
func Migrate(db *sql.DB, driver string) error {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	dir := "migrations/sqlite"
	if dialect == "mysql" {
		dir = "migrations/mysql"
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// RunInTx runs fn inside a transaction. The transaction is rolled back if fn
// returns an error and committed otherwise.
func RunInTx(ctx context.Context, db *sql.DB, fn func(q *Queries) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(New(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// now returns the current time in the form stored in every timestamp column.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
