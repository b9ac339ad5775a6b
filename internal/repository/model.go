package repository

import "time"

type RecordStatus string

const (
	RecordStatusMinted RecordStatus = "MINTED"
	RecordStatusListed RecordStatus = "LISTED"
	RecordStatusSold   RecordStatus = "SOLD"
)

// DataBlobRecord is the listing produced by a successful upload.
// RecordID equals TxDigest when certified and WalrusBlobID otherwise.
type DataBlobRecord struct {
	RecordID        string
	SessionID       string
	WalrusBlobID    string
	TxDigest        string
	RetrievalURL    string
	Network         string
	Title           string
	Description     string
	SizeBytes       int
	SizeLabel       string
	PriceSuggestion int
	Creator         string
	CreatorShort    string
	EventCount      int
	SentimentScore  int
	Status          RecordStatus
	SealScheme      string
	ContentDigest   string
	TranscriptText  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r DataBlobRecord) Certified() bool {
	return r.TxDigest != ""
}
