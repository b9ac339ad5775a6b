package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/foxseedlab/plantbuddy/internal/repository"
)

// MemoryRepository keeps records for the lifetime of the process.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]repository.DataBlobRecord
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string]repository.DataBlobRecord),
		now:     time.Now,
	}
}

func (r *MemoryRepository) SaveRecord(ctx context.Context, rec repository.DataBlobRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[rec.RecordID]; ok {
		rec.CreatedAt = existing.CreatedAt
	}
	rec.UpdatedAt = r.now()
	r.records[rec.RecordID] = rec
	return nil
}

func (r *MemoryRepository) GetRecord(ctx context.Context, recordID string) (*repository.DataBlobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[recordID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return &rec, nil
}

func (r *MemoryRepository) ListRecords(ctx context.Context, limit int) ([]repository.DataBlobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	list := make([]repository.DataBlobRecord, 0, len(r.records))
	for _, rec := range r.records {
		list = append(list, rec)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].RecordID < list[j].RecordID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *MemoryRepository) UpdateCertification(ctx context.Context, input repository.UpdateCertificationInput) (*repository.DataBlobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[input.RecordID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	delete(r.records, input.RecordID)
	rec.RecordID = input.TxDigest
	rec.TxDigest = input.TxDigest
	rec.Status = repository.RecordStatusListed
	rec.UpdatedAt = input.CertifiedAt
	r.records[rec.RecordID] = rec
	return &rec, nil
}
