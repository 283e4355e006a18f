package store

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS schools (
	urn INTEGER PRIMARY KEY,
	establishment_name VARCHAR(255) NOT NULL,
	local_authority VARCHAR(255) NOT NULL,
	establishment_status VARCHAR(255) NOT NULL,
	website VARCHAR(500),
	process BOOLEAN NOT NULL DEFAULT FALSE,
	second_scraper BOOLEAN NOT NULL DEFAULT FALSE,
	third_scraper BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_schools_local_authority ON schools (local_authority);
CREATE INDEX IF NOT EXISTS idx_schools_establishment_status ON schools (establishment_status);

CREATE TABLE IF NOT EXISTS school_records (
	id SERIAL PRIMARY KEY,
	school_urn INTEGER NOT NULL REFERENCES schools (urn) ON DELETE CASCADE,
	payload JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_school_records_school_created ON school_records (school_urn, created_at DESC);
`

// NewDB opens a PostgreSQL connection and ensures the schema exists.
func NewDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}
