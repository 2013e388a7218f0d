package migrator

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/eleven-am/pawtrack/internal/logger"
)

// EnsureDatabaseExists creates the configured database if it does not
// exist yet, connecting through the server's postgres admin database.
func EnsureDatabaseExists(dsn string) error {
	dbName, adminDSN, err := parseDSNForDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse DSN: %w", err)
	}

	db, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to admin database: %w", err)
	}
	defer db.Close()

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	if err := db.QueryRow(query, dbName).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		log := logger.Migration()
		log.Infof("database %q does not exist, creating", dbName)

		createSQL := fmt.Sprintf("CREATE DATABASE %s", quoteIdentifier(dbName))
		if _, err := db.Exec(createSQL); err != nil {
			return fmt.Errorf("failed to create database %q: %w", dbName, err)
		}

		log.Infof("database %q created", dbName)
	}

	return nil
}

// parseDSNForDB extracts the database name from a URL or key=value
// DSN and returns an equivalent DSN pointing at the admin database.
func parseDSNForDB(dsn string) (dbName string, adminDSN string, err error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		parts := strings.Split(dsn, "/")
		if len(parts) < 4 {
			return "", "", fmt.Errorf("invalid database URL format")
		}

		dbPart := parts[len(parts)-1]
		if idx := strings.Index(dbPart, "?"); idx != -1 {
			dbName = dbPart[:idx]
			adminDSN = strings.Join(parts[:len(parts)-1], "/") + "/postgres?" + dbPart[idx+1:]
		} else {
			dbName = dbPart
			adminDSN = strings.Join(parts[:len(parts)-1], "/") + "/postgres"
		}
		return dbName, adminDSN, nil
	}

	params := make(map[string]string)
	for _, kv := range strings.Fields(dsn) {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			params[parts[0]] = parts[1]
		}
	}

	dbName = params["dbname"]
	if dbName == "" {
		return "", "", fmt.Errorf("no database name found in DSN")
	}

	adminParts := make([]string, 0, len(params))
	for k, v := range params {
		if k == "dbname" {
			adminParts = append(adminParts, "dbname=postgres")
		} else {
			adminParts = append(adminParts, fmt.Sprintf("%s=%s", k, v))
		}
	}
	adminDSN = strings.Join(adminParts, " ")

	return dbName, adminDSN, nil
}

// quoteIdentifier quotes a PostgreSQL identifier to prevent SQL injection.
func quoteIdentifier(name string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(name, `"`, `""`))
}
