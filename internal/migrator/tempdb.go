package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
)

// TempDBManager creates short-lived scratch databases on the same
// server as the configured database. The migrator applies the target
// DDL there so Atlas can inspect a fully materialized schema.
type TempDBManager struct {
	baseConfig *DBConfig
}

func NewTempDBManager(config *DBConfig) *TempDBManager {
	return &TempDBManager{baseConfig: config}
}

// CreateTempDB creates a database named name and returns a connection
// to it plus a cleanup func that drops it again. The cleanup func is
// safe to call exactly once.
func (m *TempDBManager) CreateTempDB(ctx context.Context, name string) (*sql.DB, func(), error) {
	admin, err := m.baseConfig.Connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect for temp database setup: %w", err)
	}

	createSQL := fmt.Sprintf("CREATE DATABASE %s", quoteIdentifier(name))
	if _, err := admin.ExecContext(ctx, createSQL); err != nil {
		admin.Close()
		return nil, nil, fmt.Errorf("failed to create temp database %q: %w", name, err)
	}

	drop := func() {
		dropSQL := fmt.Sprintf("DROP DATABASE IF EXISTS %s", quoteIdentifier(name))
		admin.ExecContext(context.Background(), dropSQL)
		admin.Close()
	}

	tempDB, err := sql.Open("postgres", m.buildTempDBURL(name))
	if err != nil {
		drop()
		return nil, nil, fmt.Errorf("failed to open temp database %q: %w", name, err)
	}

	if err := tempDB.PingContext(ctx); err != nil {
		tempDB.Close()
		drop()
		return nil, nil, fmt.Errorf("failed to ping temp database %q: %w", name, err)
	}

	cleanup := func() {
		tempDB.Close()
		drop()
	}
	return tempDB, cleanup, nil
}

// buildTempDBURL swaps the database path of the base URL for name,
// preserving credentials and query parameters.
func (m *TempDBManager) buildTempDBURL(name string) string {
	u, err := url.Parse(m.baseConfig.URL)
	if err != nil {
		return ""
	}
	u.Path = "/" + name
	return u.String()
}
