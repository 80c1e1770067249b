package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Config holds database configuration.
type Config struct {
	// Driver specifies the database driver to use.
	// If empty, it is detected from the URL.
	Driver Driver

	// URL is the connection string for PostgreSQL.
	URL string

	// SQLitePath is the path to the SQLite database file.
	SQLitePath string

	// MaxConns is the maximum number of connections (PostgreSQL only).
	MaxConns int
}

// Connection is a live database handle of either driver.
type Connection interface {
	Driver() Driver
	Ping(ctx context.Context) error
	Close() error
}

// NewConnection opens a database connection based on configuration.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DetectDriver(cfg.URL)
	}

	switch driver {
	case DriverPostgres:
		return newPostgresConnection(ctx, cfg)
	case DriverSQLite:
		return newSQLiteConnection(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// PostgresConnection wraps pgxpool.Pool.
type PostgresConnection struct {
	pool *pgxpool.Pool
}

func newPostgresConnection(ctx context.Context, cfg Config) (*PostgresConnection, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required for PostgreSQL")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresConnection{pool: pool}, nil
}

// Pool returns the underlying pgxpool.Pool.
func (c *PostgresConnection) Pool() *pgxpool.Pool {
	return c.pool
}

// Driver returns the driver type.
func (c *PostgresConnection) Driver() Driver {
	return DriverPostgres
}

// Ping verifies the connection is still alive.
func (c *PostgresConnection) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close closes the connection pool.
func (c *PostgresConnection) Close() error {
	c.pool.Close()
	return nil
}

// SQLiteConnection wraps sql.DB.
type SQLiteConnection struct {
	db *sql.DB
}

func newSQLiteConnection(ctx context.Context, cfg Config) (*SQLiteConnection, error) {
	path := cfg.SQLitePath
	if path == "" {
		return nil, fmt.Errorf("SQLite path is required")
	}

	if err := ensureDirectory(path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas: WAL for concurrency, enforced foreign keys, 5s busy wait.
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteConnection{db: db}, nil
}

// DB returns the underlying sql.DB.
func (c *SQLiteConnection) DB() *sql.DB {
	return c.db
}

// Driver returns the driver type.
func (c *SQLiteConnection) Driver() Driver {
	return DriverSQLite
}

// Ping verifies the connection is still alive.
func (c *SQLiteConnection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection.
func (c *SQLiteConnection) Close() error {
	return c.db.Close()
}

func ensureDirectory(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
