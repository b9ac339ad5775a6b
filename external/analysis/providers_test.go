package analysis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/plantbuddy/internal/analysis"
)

const listingJSON = `{"title":"Whispering Fern","description":"A gentle morning. Full of warmth.","priceSuggestion":640}`

func TestOpenAIProvider_Complete(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": listingJSON},
			}},
		})
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", server.URL+"/v1", "gpt-4o-mini", server.Client())
	text, err := p.Complete(context.Background(), analysis.BuildPrompt("Interactions: 3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := analysis.ParseResponse(text)
	if err != nil || got.Title != "Whispering Fern" || got.PriceSuggestion != 640 {
		t.Fatalf("unexpected analysis %+v (%v)", got, err)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model in request: %v", gotBody["model"])
	}
	format, _ := gotBody["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", gotBody["response_format"])
	}
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", server.URL+"/v1", "gpt-4o-mini", server.Client())
	if _, err := p.Complete(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error from failing endpoint")
	}
}

func TestGeminiProviders_FallBackAcrossModels(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if strings.Contains(r.URL.Path, "retired-model") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"model not found","status":"NOT_FOUND"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": listingJSON}},
				},
			}},
		})
	}))
	defer server.Close()

	providers, err := NewGeminiProviders(context.Background(), GeminiOptions{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	}, []string{"retired-model", " ", "gemini-2.0-flash"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("expected blank model names to be skipped, got %d providers", len(providers))
	}

	got, err := analysis.NewChain(5*time.Second, providers...).Analyze(context.Background(), "Interactions: 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Whispering Fern" {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(paths) < 2 || !strings.Contains(paths[0], "retired-model") || !strings.Contains(paths[len(paths)-1], "gemini-2.0-flash") {
		t.Fatalf("expected retired model then fallback model, got %v", paths)
	}
}

func TestNewGeminiProviders_RequiresKey(t *testing.T) {
	if _, err := NewGeminiProviders(context.Background(), GeminiOptions{}, []string{"gemini-2.0-flash"}); err == nil {
		t.Fatal("expected error without api key")
	}
}
