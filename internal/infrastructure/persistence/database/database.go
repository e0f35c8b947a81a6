// Package database opens and configures the checkout database: a local SQLite
// file by default, or a remote Turso database when credentials are configured.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/pkg/config"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

const (
	DriverSQLite = "sqlite3"
	DriverLibSQL = "libsql"
)

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
	Driver string
}

// Options selects the database to open.
type Options struct {
	Path         string
	TursoURL     string
	TursoToken   string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// OptionsFromConfig builds options from the environment configuration.
func OptionsFromConfig() Options {
	return Options{
		Path:         config.DatabasePath,
		TursoURL:     config.TursoDatabaseURL,
		TursoToken:   config.TursoAuthToken,
		MaxOpenConns: config.DBMaxOpenConns,
		MaxIdleConns: config.DBMaxIdleConns,
		ConnLifetime: time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute,
	}
}

// driverAndDSN picks Turso when a URL is set, SQLite otherwise.
func (o Options) driverAndDSN() (string, string) {
	if o.TursoURL != "" {
		dsn := o.TursoURL
		if o.TursoToken != "" {
			dsn = fmt.Sprintf("%s?authToken=%s", o.TursoURL, o.TursoToken)
		}
		return DriverLibSQL, dsn
	}
	return DriverSQLite, fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", o.Path)
}

// Open establishes the connection, applies pool settings and pings it.
func Open(ctx context.Context, opts Options, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	driver, dsn := opts.driverAndDSN()
	logger.Database().Debug("Creating database connection", "driver", driver)

	if driver == DriverSQLite {
		if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driver", driver)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logger.Database().Error("Database ping failed", "error", err.Error(), "driver", driver)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	duration := time.Since(start)
	logger.Database().Info("Database connection established", "driver", driver, "duration", duration)
	CheckAndLogSlowQuery(logger, "DATABASE_CONNECTION", duration, "open")

	return &DB{DB: db, Driver: driver}, nil
}
