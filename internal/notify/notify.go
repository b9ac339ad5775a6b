package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ListingNotice announces a newly minted or listed record.
type ListingNotice struct {
	RecordID           string    `json:"recordId"`
	WalrusBlobID       string    `json:"walrusBlobId"`
	TxDigest           string    `json:"txDigest,omitempty"`
	Status             string    `json:"status"`
	Network            string    `json:"network"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	PriceSuggestion    int       `json:"priceSuggestion"`
	SizeLabel          string    `json:"sizeLabel"`
	CreatorShort       string    `json:"creatorShort"`
	EventCount         int       `json:"eventCount"`
	SentimentScore     int       `json:"sentimentScore"`
	RetrievalURL       string    `json:"retrievalUrl"`
	CreatedAt          time.Time `json:"createdAt"`
	SealScheme         string    `json:"sealScheme"`
	TranscriptFilename string    `json:"transcriptFilename,omitempty"`
	// Transcript is empty when the stored payload is sealed.
	Transcript         []byte    `json:"-"`
}

type Notifier interface {
	Name() string
	NotifyListing(ctx context.Context, notice ListingNotice) error
}

// Fanout delivers to every notifier. A failing notifier never stops the others.
type Fanout []Notifier

func (f Fanout) NotifyListing(ctx context.Context, notice ListingNotice) error {
	var errs []error
	for _, n := range f {
		if err := n.NotifyListing(ctx, notice); err != nil {
			slog.Warn("listing notification failed",
				"notifier", n.Name(),
				"record_id", notice.RecordID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
