// internal/db/db.go
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/textpilot/bulksms-backend/internal/config"
)

// Open connects to Postgres and verifies the connection.
func Open(cfg config.PostgresConfig) (*sql.DB, error) {
	conn, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return conn, nil
}
