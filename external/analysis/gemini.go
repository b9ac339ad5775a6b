package analysis

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/foxseedlab/plantbuddy/internal/analysis"
)

// GeminiProvider asks a single Gemini model for JSON listing metadata.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

type GeminiOptions struct {
	APIKey string
	// BaseURL overrides the API host; used by tests.
	BaseURL    string
	HTTPClient *http.Client
}

// NewGeminiProviders returns one provider per model, sharing a client, in the given order.
func NewGeminiProviders(ctx context.Context, opts GeminiOptions, models []string) ([]analysis.Provider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	providers := make([]analysis.Provider, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		providers = append(providers, &GeminiProvider{client: client, model: m})
	}
	return providers, nil
}

func (g *GeminiProvider) Name() string {
	return "gemini/" + g.model
}

func (g *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini %s returned no candidates", g.model)
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("gemini %s returned empty content", g.model)
	}
	return text.String(), nil
}
