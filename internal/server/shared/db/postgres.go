// Package db opens the PostgreSQL connection pool behind the credential
// store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// ConnConfig parses dsn and points it at dbName when dbName is set.
func ConnConfig(dsn, dbName string) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if dbName != "" {
		cfg.Database = dbName
	}
	return cfg, nil
}

// OpenPostgres opens a database/sql pool through the pgx driver and checks
// it with a ping bounded by ctx.
func OpenPostgres(ctx context.Context, dsn, dbName string) (*sql.DB, error) {
	cfg, err := ConnConfig(dsn, dbName)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
