package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/filegate/filegate/auth/schema"
)

// SQLiteAuthenticator validates tokens against access codes stored in a
// SQLite database (table `access`, column `access_code`). Codes are read on
// every check so they can be rotated without restarting the process.
type SQLiteAuthenticator struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteAuthenticator opens the access-code database at dbPath, applying
// schema migrations first so a fresh file is usable immediately.
func NewSQLiteAuthenticator(dbPath string, logger *zap.Logger) (*SQLiteAuthenticator, error) {
	if err := schema.RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("failed to migrate access database: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open access database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping access database: %w", err)
	}

	return &SQLiteAuthenticator{db: db, logger: logger}, nil
}

// Authenticate validates a token against the stored access codes.
func (a *SQLiteAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return "", ErrAuthenticationFailed
	}

	var count int
	err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM access WHERE access_code = ?`, token).Scan(&count)
	if err != nil {
		a.logger.Error("Access code lookup failed", zap.Error(err))
		return "", ErrAuthenticationFailed
	}
	if count == 0 {
		return "", ErrAuthenticationFailed
	}
	return "access-code", nil
}

// Close closes the underlying database handle.
func (a *SQLiteAuthenticator) Close() error {
	return a.db.Close()
}
