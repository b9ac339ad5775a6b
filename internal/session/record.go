package session

import (
	"fmt"
	"time"

	"github.com/foxseedlab/plantbuddy/internal/analysis"
	"github.com/foxseedlab/plantbuddy/internal/blob"
	"github.com/foxseedlab/plantbuddy/internal/chain"
	"github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/foxseedlab/plantbuddy/internal/repository"
	"github.com/foxseedlab/plantbuddy/internal/seal"
)

const (
	anonymousCreatorShort = "0xME...YOU"
	downloadPrefixLength  = 8
)

type recordInput struct {
	sessionID  string
	network    config.Network
	creator    string
	published  blob.PublishResult
	outcome    chain.Outcome
	analysis   analysis.Analysis
	transcript Transcript
	payload    []byte
	scheme     seal.Scheme
	eventCount int
	sentiment  int
	createdAt  time.Time
}

// buildRecord keys the record by the transaction digest when certification
// produced one and by the blob id otherwise. Status follows the same rule.
func buildRecord(in recordInput) repository.DataBlobRecord {
	rec := repository.DataBlobRecord{
		RecordID:        in.published.BlobID,
		SessionID:       in.sessionID,
		WalrusBlobID:    in.published.BlobID,
		RetrievalURL:    in.published.RetrievalURL,
		Network:         string(in.network),
		Title:           in.analysis.Title,
		Description:     in.analysis.Description,
		SizeBytes:       len(in.payload),
		SizeLabel:       sizeLabel(len(in.payload)),
		PriceSuggestion: in.analysis.PriceSuggestion,
		Creator:         in.creator,
		CreatorShort:    creatorShort(in.creator),
		EventCount:      in.eventCount,
		SentimentScore:  in.sentiment,
		Status:          repository.RecordStatusMinted,
		SealScheme:      string(in.scheme),
		ContentDigest:   contentDigest(in.payload),
		TranscriptText:  in.transcript.Text(),
		CreatedAt:       in.createdAt,
		UpdatedAt:       in.createdAt,
	}
	if in.outcome.IsCertified() {
		rec.RecordID = in.outcome.TxDigest
		rec.TxDigest = in.outcome.TxDigest
		rec.Status = repository.RecordStatusListed
	}
	return rec
}

func sizeLabel(n int) string {
	return fmt.Sprintf("%.2f KB", float64(n)/1024)
}

func creatorShort(address string) string {
	if len(address) < 10 {
		return anonymousCreatorShort
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// DownloadFilename names the local transcript file offered after an upload.
func DownloadFilename(recordID string) string {
	prefix := recordID
	if r := []rune(prefix); len(r) > downloadPrefixLength {
		prefix = string(r[:downloadPrefixLength])
	}
	return fmt.Sprintf("PlantBuddy_%s.txt", prefix)
}
