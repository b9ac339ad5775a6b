package repository

import (
	"context"
	"errors"
	"time"
)

var ErrRecordNotFound = errors.New("record not found")

type UpdateCertificationInput struct {
	RecordID    string
	TxDigest    string
	CertifiedAt time.Time
}

type RecordRepository interface {
	// SaveRecord inserts the record, replacing any record with the same id.
	SaveRecord(ctx context.Context, record DataBlobRecord) error
	GetRecord(ctx context.Context, recordID string) (*DataBlobRecord, error)
	// ListRecords returns newest first. A non-positive limit means no limit.
	ListRecords(ctx context.Context, limit int) ([]DataBlobRecord, error)
	// UpdateCertification marks a record LISTED and re-keys it by the digest.
	UpdateCertification(ctx context.Context, input UpdateCertificationInput) (*DataBlobRecord, error)
}

type Repository interface {
	RecordRepository
}
