package session

import (
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/plantbuddy/internal/config"
)

var capturedAt = time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)

func threeEvents() []InteractionEvent {
	base := capturedAt.Add(-time.Minute).UnixMilli()
	return []InteractionEvent{
		{Timestamp: base, CapacitanceLevel: 40, SentimentLabel: "Joy", UserMessage: "hi"},
		{Timestamp: base + 5000, CapacitanceLevel: 90, SentimentLabel: "Neutral"},
		{Timestamp: base + 9000, CapacitanceLevel: 20, SentimentLabel: "Calm", DeviceMessage: "hello"},
	}
}

func TestCompile_DropsEventsWithoutMessages(t *testing.T) {
	tr := Compile(threeEvents(), config.NetworkTestnet, "0xabc", capturedAt, time.UTC)

	if len(tr.Lines) != 2 {
		t.Fatalf("expected 2 body lines, got %d: %v", len(tr.Lines), tr.Lines)
	}
	if tr.Lines[0] != "[11:59:00] USER: hi" {
		t.Fatalf("unexpected first line: %q", tr.Lines[0])
	}
	if tr.Lines[1] != "[11:59:09] PLANT: hello" {
		t.Fatalf("unexpected second line: %q", tr.Lines[1])
	}
}

func TestCompile_UserMessageWinsOverDeviceMessage(t *testing.T) {
	events := []InteractionEvent{{Timestamp: capturedAt.UnixMilli(), UserMessage: "me", DeviceMessage: "plant"}}
	tr := Compile(events, config.NetworkTestnet, "", capturedAt, time.UTC)
	if len(tr.Lines) != 1 || !strings.Contains(tr.Lines[0], "USER: me") {
		t.Fatalf("unexpected lines: %v", tr.Lines)
	}
}

func TestCompile_Header(t *testing.T) {
	tr := Compile(threeEvents(), config.NetworkMainnet, "", capturedAt, time.UTC)
	text := tr.Text()

	for _, want := range []string{
		"PLANTBUDDY SESSION TRANSCRIPT\n",
		"DATE: 2026-02-28T12:00:00.000Z\n",
		"NETWORK: MAINNET\n",
		"CREATOR: Anonymous\n",
		transcriptSeparator + "\n\n",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("header is missing %q:\n%s", want, text)
		}
	}
	if !strings.HasSuffix(text, "[11:59:00] USER: hi\n\n[11:59:09] PLANT: hello") {
		t.Fatalf("unexpected body:\n%s", text)
	}
}

func TestCompile_EmptySessionUsesPlaceholder(t *testing.T) {
	tr := Compile(nil, config.NetworkTestnet, "0xabc", capturedAt, time.UTC)
	if len(tr.Lines) != 0 {
		t.Fatalf("expected no body lines, got %v", tr.Lines)
	}
	if !strings.HasSuffix(tr.Text(), transcriptPlaceholder) {
		t.Fatalf("expected placeholder body, got:\n%s", tr.Text())
	}
}

func TestCompile_LineCountMatchesMessageEvents(t *testing.T) {
	events := make([]InteractionEvent, 0, 50)
	want := 0
	for i := 0; i < 50; i++ {
		e := InteractionEvent{Timestamp: capturedAt.UnixMilli() + int64(i)}
		switch i % 3 {
		case 0:
			e.UserMessage = "u"
			want++
		case 1:
			e.DeviceMessage = "d"
			want++
		}
		events = append(events, e)
	}
	tr := Compile(events, config.NetworkTestnet, "", capturedAt, time.UTC)
	if len(tr.Lines) != want {
		t.Fatalf("expected %d lines, got %d", want, len(tr.Lines))
	}
}

func TestCompile_UsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	tr := Compile(threeEvents()[:1], config.NetworkTestnet, "", capturedAt, loc)
	if tr.Lines[0] != "[20:59:00] USER: hi" {
		t.Fatalf("unexpected localized line: %q", tr.Lines[0])
	}
}

func TestComputeStats(t *testing.T) {
	stats := computeStats(threeEvents())
	if stats.EventCount != 3 {
		t.Fatalf("unexpected count: %d", stats.EventCount)
	}
	if stats.Duration != 9*time.Second {
		t.Fatalf("unexpected duration: %s", stats.Duration)
	}
	if stats.MeanCapacitance != 50 {
		t.Fatalf("unexpected mean capacitance: %f", stats.MeanCapacitance)
	}
	if (computeStats(nil) != SessionStats{}) {
		t.Fatal("expected zero stats for empty session")
	}
}

func TestBuildAnalysisSummary_TruncatesPreview(t *testing.T) {
	text := strings.Repeat("x", 500)
	summary := buildAnalysisSummary(SessionStats{EventCount: 3, Duration: 9 * time.Second, MeanCapacitance: 50}, text)
	if !strings.Contains(summary, "Duration: 9s.") || !strings.Contains(summary, "Interactions: 3 points.") {
		t.Fatalf("unexpected summary: %s", summary)
	}
	if !strings.Contains(summary, "Script Preview: "+strings.Repeat("x", 200)+"...") || strings.Contains(summary, strings.Repeat("x", 201)) {
		t.Fatal("expected preview to be truncated to 200 characters")
	}
}

func TestSentimentScore(t *testing.T) {
	if got := sentimentScore(nil); got != 50 {
		t.Fatalf("expected neutral score for empty session, got %d", got)
	}
	got := sentimentScore([]InteractionEvent{{SentimentLabel: "Joy"}, {SentimentLabel: "Sad"}, {SentimentLabel: "unknown"}})
	if got != 53 {
		t.Fatalf("unexpected score: %d", got)
	}
}

func TestContentDigest_Stable(t *testing.T) {
	a := contentDigest([]byte("hello"))
	b := contentDigest([]byte("hello"))
	if a != b || len(a) != 64 {
		t.Fatalf("unexpected digest: %s / %s", a, b)
	}
	if a == contentDigest([]byte("hello!")) {
		t.Fatal("expected different digest for different payload")
	}
}
