package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/foxseedlab/plantbuddy/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = `record_id, session_id, walrus_blob_id, tx_digest, retrieval_url, network,
	title, description, size_bytes, size_label, price_suggestion, creator, creator_short,
	event_count, sentiment_score, status, seal_scheme, content_digest, transcript_text,
	created_at, updated_at`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) SaveRecord(ctx context.Context, rec repository.DataBlobRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO data_blob_records (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW())
		 ON CONFLICT (record_id) DO UPDATE SET
		   session_id = EXCLUDED.session_id,
		   tx_digest = EXCLUDED.tx_digest,
		   retrieval_url = EXCLUDED.retrieval_url,
		   title = EXCLUDED.title,
		   description = EXCLUDED.description,
		   price_suggestion = EXCLUDED.price_suggestion,
		   event_count = EXCLUDED.event_count,
		   sentiment_score = EXCLUDED.sentiment_score,
		   status = EXCLUDED.status,
		   transcript_text = EXCLUDED.transcript_text,
		   updated_at = NOW()`,
		rec.RecordID, rec.SessionID, rec.WalrusBlobID, rec.TxDigest, rec.RetrievalURL, rec.Network,
		rec.Title, rec.Description, rec.SizeBytes, rec.SizeLabel, rec.PriceSuggestion, rec.Creator, rec.CreatorShort,
		rec.EventCount, rec.SentimentScore, string(rec.Status), rec.SealScheme, rec.ContentDigest, rec.TranscriptText,
		rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.RecordID, err)
	}
	return nil
}

func (r *PostgresRepository) GetRecord(ctx context.Context, recordID string) (*repository.DataBlobRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM data_blob_records WHERE record_id = $1`, recordID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *PostgresRepository) ListRecords(ctx context.Context, limit int) ([]repository.DataBlobRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM data_blob_records ORDER BY created_at DESC, record_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.DataBlobRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rec)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) UpdateCertification(ctx context.Context, input repository.UpdateCertificationInput) (*repository.DataBlobRecord, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE data_blob_records
		 SET record_id = $2, tx_digest = $2, status = 'LISTED', updated_at = $3
		 WHERE record_id = $1
		 RETURNING `+recordColumns,
		input.RecordID, input.TxDigest, input.CertifiedAt)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (*repository.DataBlobRecord, error) {
	var rec repository.DataBlobRecord
	var status string
	err := row.Scan(
		&rec.RecordID, &rec.SessionID, &rec.WalrusBlobID, &rec.TxDigest, &rec.RetrievalURL, &rec.Network,
		&rec.Title, &rec.Description, &rec.SizeBytes, &rec.SizeLabel, &rec.PriceSuggestion, &rec.Creator, &rec.CreatorShort,
		&rec.EventCount, &rec.SentimentScore, &status, &rec.SealScheme, &rec.ContentDigest, &rec.TranscriptText,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = repository.RecordStatus(status)
	return &rec, nil
}
