package turso

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/agentlab/internal/infrastructure/config"
)

// DB wraps the libSQL connection pool.
type DB struct {
	*sql.DB
}

// NewDB opens and pings the database described by cfg. Local file: URLs
// ignore the auth token; remote URLs require one.
func NewDB(ctx context.Context, cfg config.Database) (*DB, error) {
	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if isLocal(cfg.URL) {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return &DB{DB: db}, nil
}

func dataSourceName(cfg config.Database) (string, error) {
	if cfg.URL == "" {
		return "", fmt.Errorf("database URL is required")
	}
	if isLocal(cfg.URL) {
		return cfg.URL, nil
	}
	if cfg.AuthToken == "" {
		return "", fmt.Errorf("auth token is required for remote database %s", cfg.URL)
	}
	return fmt.Sprintf("%s?authToken=%s", cfg.URL, url.QueryEscape(cfg.AuthToken)), nil
}

func isLocal(u string) bool {
	return strings.HasPrefix(u, "file:")
}
