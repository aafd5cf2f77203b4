package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"customer-registry/internal/pkg/apperrors"
)

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		gender VARCHAR(6),
		birth_date DATE,
		nickname VARCHAR(120),
		email VARCHAR(80) NOT NULL,
		document_number VARCHAR(14) NOT NULL,
		address TEXT,
		location geography(Point, 4326),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_customers_document_number ON customers (document_number)`,
	`CREATE INDEX IF NOT EXISTS ix_customers_name ON customers (name)`,
	`CREATE INDEX IF NOT EXISTS ix_customers_location ON customers USING GIST (location)`,
}

// EnsureSchema is idempotent and safe to run on every start.
func EnsureSchema(ctx context.Context, db DBPool, logger *slog.Logger) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			logger.ErrorContext(ctx, "Failed to apply schema statement", slog.Int("statement", i), slog.Any("error", err))
			return fmt.Errorf("%w: failed to apply schema statement %d: %w", apperrors.ErrDatabase, i, err)
		}
	}
	logger.InfoContext(ctx, "Database schema is up to date", slog.Int("statements", len(schemaStatements)))
	return nil
}
