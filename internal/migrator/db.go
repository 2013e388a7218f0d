package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DBConfig holds connection settings for the pawtrack database.
type DBConfig struct {
	URL             string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

func NewDBConfig(url string) *DBConfig {
	return &DBConfig{
		URL:             url,
		ConnMaxLifetime: 10 * time.Minute,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
	}
}

// Connect opens a database/sql connection with the configured pool
// limits and verifies it with a ping.
func (cfg *DBConfig) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "SET statement_timeout = '300s'"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set statement timeout: %w", err)
	}

	return db, nil
}

// ConnectX opens a sqlx connection for the stores, reusing the pool
// settings from Connect.
func (cfg *DBConfig) ConnectX(ctx context.Context) (*sqlx.DB, error) {
	db, err := cfg.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(db, "postgres"), nil
}
