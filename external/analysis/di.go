package analysis

import (
	"context"
	"log/slog"

	"github.com/foxseedlab/plantbuddy/internal/analysis"
	"github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/samber/do/v2"
)

// RegisterDI provides the analyzer chain. Gemini models come first, then the
// OpenAI-compatible model; a provider without a key is left out.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (analysis.Analyzer, error) {
		c := do.MustInvoke[*config.Config](i)

		var providers []analysis.Provider
		if c.GeminiAPIKey != "" {
			gemini, err := NewGeminiProviders(context.Background(), GeminiOptions{APIKey: c.GeminiAPIKey}, c.GeminiModels)
			if err != nil {
				return nil, err
			}
			providers = append(providers, gemini...)
		}
		if c.OpenAIAPIKey != "" {
			providers = append(providers, NewOpenAIProvider(c.OpenAIAPIKey, c.OpenAIBaseURL, c.OpenAIModel, nil))
		}
		if len(providers) == 0 {
			slog.Warn("no analysis provider configured, listings will use fallback metadata")
		}
		return analysis.NewChain(c.AnalysisTimeout, providers...), nil
	})
}
