package session

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/zeebo/blake3"
)

const (
	transcriptTitle       = "PLANTBUDDY SESSION TRANSCRIPT"
	transcriptSeparator   = "-----------------------------------"
	transcriptPlaceholder = "[No verbal interaction recorded]"
	anonymousCreator      = "Anonymous"

	transcriptLineTimeLayout = "15:04:05"
	transcriptDateLayout     = "2006-01-02T15:04:05.000Z07:00"

	analysisPreviewChars = 200
)

// InteractionEvent is one recorded moment of a device session.
type InteractionEvent struct {
	Timestamp        int64   `json:"timestamp" yaml:"timestamp"`
	CapacitanceLevel float64 `json:"capacitance" yaml:"capacitance"`
	SentimentLabel   string  `json:"sentiment" yaml:"sentiment"`
	UserMessage      string  `json:"userMessage,omitempty" yaml:"userMessage,omitempty"`
	DeviceMessage    string  `json:"plantResponse,omitempty" yaml:"plantResponse,omitempty"`
}

func (e InteractionEvent) At() time.Time {
	return time.UnixMilli(e.Timestamp)
}

type Transcript struct {
	CreatedAt time.Time
	Network   config.Network
	Creator   string
	// Lines holds one entry per event carrying a message, in event order.
	Lines []string
}

func (t Transcript) Header() string {
	return strings.Join([]string{
		transcriptTitle,
		"DATE: " + t.CreatedAt.UTC().Format(transcriptDateLayout),
		"NETWORK: " + string(t.Network),
		"CREATOR: " + t.Creator,
		transcriptSeparator,
		"",
		"",
	}, "\n")
}

func (t Transcript) Body() string {
	if len(t.Lines) == 0 {
		return transcriptPlaceholder
	}
	return strings.Join(t.Lines, "\n\n")
}

func (t Transcript) Text() string {
	return t.Header() + t.Body()
}

func (t Transcript) SizeBytes() int {
	return len(t.Text())
}

// Compile builds the transcript for events. capturedAt is the header date, not an event time.
func Compile(events []InteractionEvent, network config.Network, creatorID string, capturedAt time.Time, loc *time.Location) Transcript {
	creator := strings.TrimSpace(creatorID)
	if creator == "" {
		creator = anonymousCreator
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		stamp := e.At().In(safeLocation(loc)).Format(transcriptLineTimeLayout)
		switch {
		case e.UserMessage != "":
			lines = append(lines, fmt.Sprintf("[%s] USER: %s", stamp, e.UserMessage))
		case e.DeviceMessage != "":
			lines = append(lines, fmt.Sprintf("[%s] PLANT: %s", stamp, e.DeviceMessage))
		}
	}
	return Transcript{
		CreatedAt: capturedAt,
		Network:   network,
		Creator:   creator,
		Lines:     lines,
	}
}

type SessionStats struct {
	EventCount      int
	Duration        time.Duration
	MeanCapacitance float64
}

func computeStats(events []InteractionEvent) SessionStats {
	if len(events) == 0 {
		return SessionStats{}
	}
	var sum float64
	for _, e := range events {
		sum += e.CapacitanceLevel
	}
	d := events[len(events)-1].At().Sub(events[0].At())
	if d < 0 {
		d = 0
	}
	return SessionStats{
		EventCount:      len(events),
		Duration:        d,
		MeanCapacitance: sum / float64(len(events)),
	}
}

func buildAnalysisSummary(stats SessionStats, text string) string {
	preview := text
	if r := []rune(text); len(r) > analysisPreviewChars {
		preview = string(r[:analysisPreviewChars])
	}
	return strings.Join([]string{
		fmt.Sprintf("Duration: %gs.", stats.Duration.Seconds()),
		fmt.Sprintf("Interactions: %d points.", stats.EventCount),
		fmt.Sprintf("Avg Capacitance: %.2f.", stats.MeanCapacitance),
		fmt.Sprintf("Script Preview: %s...", preview),
	}, "\n")
}

var sentimentWeights = map[string]float64{
	"joy":        100,
	"happy":      100,
	"love":       100,
	"gratitude":  100,
	"excited":    90,
	"calm":       75,
	"peaceful":   75,
	"content":    75,
	"neutral":    50,
	"curious":    60,
	"tired":      35,
	"anxious":    20,
	"lonely":     20,
	"melancholy": 15,
	"sad":        10,
	"angry":      5,
}

// sentimentScore maps event sentiment labels to a 0-100 positivity score.
// Unknown labels count as neutral.
func sentimentScore(events []InteractionEvent) int {
	if len(events) == 0 {
		return 50
	}
	var sum float64
	for _, e := range events {
		w, ok := sentimentWeights[strings.ToLower(strings.TrimSpace(e.SentimentLabel))]
		if !ok {
			w = 50
		}
		sum += w
	}
	return int(math.Round(sum / float64(len(events))))
}

// contentDigest is the hex BLAKE3-256 of the uploaded payload.
func contentDigest(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func safeLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
