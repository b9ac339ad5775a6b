package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foxseedlab/plantbuddy/internal/repository"
)

func mintedRecord(id string, createdAt time.Time) repository.DataBlobRecord {
	return repository.DataBlobRecord{
		RecordID:       id,
		WalrusBlobID:   id,
		Network:        "TESTNET",
		Title:          "Raw Bio-Data Upload",
		Status:         repository.RecordStatusMinted,
		TranscriptText: "PLANTBUDDY SESSION TRANSCRIPT",
		CreatedAt:      createdAt,
	}
}

func TestMemoryRepository_SaveAndGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	if err := repo.SaveRecord(ctx, mintedRecord("blob-1", time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := repo.GetRecord(ctx, "blob-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TranscriptText != "PLANTBUDDY SESSION TRANSCRIPT" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if _, err := repo.GetRecord(ctx, "missing"); !errors.Is(err, repository.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestMemoryRepository_ListNewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	_ = repo.SaveRecord(ctx, mintedRecord("old", base))
	_ = repo.SaveRecord(ctx, mintedRecord("new", base.Add(time.Hour)))
	_ = repo.SaveRecord(ctx, mintedRecord("mid", base.Add(time.Minute)))

	list, err := repo.ListRecords(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 || list[0].RecordID != "new" || list[1].RecordID != "mid" || list[2].RecordID != "old" {
		t.Fatalf("unexpected order: %+v", list)
	}
	limited, _ := repo.ListRecords(ctx, 1)
	if len(limited) != 1 || limited[0].RecordID != "new" {
		t.Fatalf("unexpected limited list: %+v", limited)
	}
}

func TestMemoryRepository_SaveSameIDKeepsCreatedAt(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	_ = repo.SaveRecord(ctx, mintedRecord("blob-1", first))
	_ = repo.SaveRecord(ctx, mintedRecord("blob-1", first.Add(time.Hour)))

	got, _ := repo.GetRecord(ctx, "blob-1")
	if !got.CreatedAt.Equal(first) {
		t.Fatalf("expected first creation time, got %s", got.CreatedAt)
	}
	list, _ := repo.ListRecords(ctx, 0)
	if len(list) != 1 {
		t.Fatalf("expected a single record, got %d", len(list))
	}
}

func TestMemoryRepository_UpdateCertificationRekeys(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	_ = repo.SaveRecord(ctx, mintedRecord("blob-1", time.Now()))

	updated, err := repo.UpdateCertification(ctx, repository.UpdateCertificationInput{
		RecordID:    "blob-1",
		TxDigest:    "TXD9",
		CertifiedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.RecordID != "TXD9" || updated.Status != repository.RecordStatusListed || updated.WalrusBlobID != "blob-1" {
		t.Fatalf("unexpected record: %+v", updated)
	}
	if _, err := repo.GetRecord(ctx, "blob-1"); !errors.Is(err, repository.ErrRecordNotFound) {
		t.Fatal("expected old id to be gone")
	}
	if _, err := repo.UpdateCertification(ctx, repository.UpdateCertificationInput{RecordID: "blob-1", TxDigest: "x"}); !errors.Is(err, repository.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
