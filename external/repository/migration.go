package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE record_status AS ENUM ('MINTED', 'LISTED', 'SOLD'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS data_blob_records (
		record_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL DEFAULT '',
		walrus_blob_id TEXT NOT NULL,
		tx_digest TEXT NOT NULL DEFAULT '',
		retrieval_url TEXT NOT NULL DEFAULT '',
		network TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		size_label TEXT NOT NULL,
		price_suggestion INTEGER NOT NULL,
		creator TEXT NOT NULL DEFAULT '',
		creator_short TEXT NOT NULL,
		event_count INTEGER NOT NULL,
		sentiment_score INTEGER NOT NULL,
		status record_status NOT NULL DEFAULT 'MINTED',
		seal_scheme TEXT NOT NULL DEFAULT 'none',
		content_digest TEXT NOT NULL DEFAULT '',
		transcript_text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_data_blob_records_created ON data_blob_records (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_data_blob_records_blob ON data_blob_records (walrus_blob_id)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
