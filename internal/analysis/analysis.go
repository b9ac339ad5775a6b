package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	MinPrice = 100
	MaxPrice = 1000
)

type Analysis struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	PriceSuggestion int    `json:"priceSuggestion"`
}

// Fallback is substituted whenever no provider yields usable metadata.
var Fallback = Analysis{
	Title:           "Raw Bio-Data Upload",
	Description:     "Unprocessed capacitance and audio logs from a PlantBuddy device.",
	PriceSuggestion: 50,
}

// Analyzer turns a session summary into listing metadata.
type Analyzer interface {
	Analyze(ctx context.Context, summary string) (Analysis, error)
}

// Provider is one model endpoint the Chain may try.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

var ErrUnusableResponse = errors.New("unusable analysis response")

func BuildPrompt(summary string) string {
	var b strings.Builder
	b.WriteString("Analyze this raw plant-interaction dataset and package it for the Data Economy Marketplace.\n\n")
	b.WriteString("Dataset Summary:\n")
	b.WriteString(summary)
	b.WriteString("\n\nOutput JSON format only:\n")
	b.WriteString("{\n")
	b.WriteString(`  "title": "A catchy, modern title for this dataset",` + "\n")
	b.WriteString(`  "description": "A 2-sentence description highlighting the emotional value.",` + "\n")
	fmt.Fprintf(&b, "  \"priceSuggestion\": number (between %d and %d)\n", MinPrice, MaxPrice)
	b.WriteString("}\n")
	return b.String()
}

type rawAnalysis struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	PriceSuggestion *float64 `json:"priceSuggestion"`
}

// ParseResponse decodes a model reply. Title and description must be present;
// a price outside the accepted range is clamped.
func ParseResponse(text string) (Analysis, error) {
	body := stripCodeFence(text)
	if body == "" {
		return Analysis{}, fmt.Errorf("%w: empty body", ErrUnusableResponse)
	}
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrUnusableResponse, err)
	}
	title := strings.TrimSpace(raw.Title)
	desc := strings.TrimSpace(raw.Description)
	if title == "" || desc == "" {
		return Analysis{}, fmt.Errorf("%w: title and description are required", ErrUnusableResponse)
	}
	if raw.PriceSuggestion == nil || math.IsNaN(*raw.PriceSuggestion) {
		return Analysis{}, fmt.Errorf("%w: priceSuggestion is missing", ErrUnusableResponse)
	}
	return Analysis{
		Title:           title,
		Description:     desc,
		PriceSuggestion: clampPrice(*raw.PriceSuggestion),
	}, nil
}

func clampPrice(p float64) int {
	switch {
	case p < MinPrice:
		return MinPrice
	case p > MaxPrice:
		return MaxPrice
	default:
		return int(math.Round(p))
	}
}

// Models sometimes wrap JSON in a markdown fence even when asked not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
