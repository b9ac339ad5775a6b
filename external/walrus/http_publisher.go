package walrus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foxseedlab/plantbuddy/internal/attempt"
	"github.com/foxseedlab/plantbuddy/internal/blob"
	"github.com/foxseedlab/plantbuddy/internal/config"
)

const maxErrorBodyChars = 300

type HTTPPublisherConfig struct {
	Endpoints      map[config.Network]config.StorageEndpoints
	Epochs         int
	AttemptTimeout time.Duration
	RetryPasses    int
	RetryBackoff   time.Duration
}

type HTTPPublisher struct {
	endpoints      map[config.Network]config.StorageEndpoints
	epochs         int
	attemptTimeout time.Duration
	policy         attempt.Policy
	client         *http.Client
}

func NewHTTPPublisher(cfg HTTPPublisherConfig) *HTTPPublisher {
	epochs := cfg.Epochs
	if epochs <= 0 {
		epochs = 1
	}
	return &HTTPPublisher{
		endpoints:      cfg.Endpoints,
		epochs:         epochs,
		attemptTimeout: cfg.AttemptTimeout,
		policy: attempt.Policy{
			RetryPasses: cfg.RetryPasses,
			Backoff:     cfg.RetryBackoff,
		},
		client: &http.Client{},
	}
}

// uploadResponse covers both the "newly created" and the "already certified" shapes.
type uploadResponse struct {
	NewlyCreated *struct {
		BlobObject *struct {
			BlobID string `json:"blobId"`
		} `json:"blobObject"`
		BlobID string `json:"blobId"`
	} `json:"newlyCreated"`
	AlreadyCertified *struct {
		BlobID string `json:"blobId"`
	} `json:"alreadyCertified"`
	BlobID string `json:"blobId"`
}

func (r uploadResponse) blobID() (string, bool) {
	switch {
	case r.NewlyCreated != nil && r.NewlyCreated.BlobObject != nil && r.NewlyCreated.BlobObject.BlobID != "":
		return r.NewlyCreated.BlobObject.BlobID, false
	case r.NewlyCreated != nil && r.NewlyCreated.BlobID != "":
		return r.NewlyCreated.BlobID, false
	case r.AlreadyCertified != nil && r.AlreadyCertified.BlobID != "":
		return r.AlreadyCertified.BlobID, true
	default:
		return r.BlobID, false
	}
}

func (p *HTTPPublisher) Publish(ctx context.Context, network config.Network, payload []byte) (blob.PublishResult, error) {
	ep := p.endpoints[network]
	if len(ep.Publishers) == 0 {
		return blob.PublishResult{}, &blob.PublishError{Kind: blob.NoEndpointsConfigured, Network: network}
	}

	slog.Info("publishing blob", "network", network, "payload_bytes", len(payload), "publishers", len(ep.Publishers))
	res, records, err := attempt.Run(ctx, ep.Publishers, func(s string) string { return s }, p.policy,
		func(ctx context.Context, publisher string) (blob.PublishResult, error) {
			return p.publishOnce(ctx, publisher, ep.Aggregator, payload)
		})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, attempt.ErrExhausted) {
			return blob.PublishResult{}, ctxErr
		}
		return blob.PublishResult{}, &blob.PublishError{
			Kind:     blob.AllEndpointsExhausted,
			Network:  network,
			Attempts: records,
			Err:      err,
		}
	}
	slog.Info("blob published", "network", network, "blob_id", res.BlobID, "already_certified", res.AlreadyCertified, "failed_attempts", len(records))
	return res, nil
}

func (p *HTTPPublisher) publishOnce(ctx context.Context, publisher, aggregator string, payload []byte) (blob.PublishResult, error) {
	if p.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.attemptTimeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/v1/blobs?epochs=%d", strings.TrimRight(publisher, "/"), p.epochs)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return blob.PublishResult{}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := p.client.Do(req)
	if err != nil {
		slog.Warn("blob publisher unreachable", "endpoint", endpoint, "error", err)
		return blob.PublishResult{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return blob.PublishResult{}, fmt.Errorf("read publisher response: %w", err)
	}
	if !isHTTPSuccessStatus(resp.StatusCode) {
		slog.Warn("blob publisher rejected upload", "endpoint", endpoint, "status", resp.StatusCode)
		return blob.PublishResult{}, fmt.Errorf("publisher returned status %d: %s", resp.StatusCode, truncate(string(body), maxErrorBodyChars))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return blob.PublishResult{}, fmt.Errorf("malformed publisher response: %w", err)
	}
	id, already := parsed.blobID()
	if id == "" {
		return blob.PublishResult{}, fmt.Errorf("malformed publisher response: no blob id in %s", truncate(string(body), maxErrorBodyChars))
	}
	return blob.PublishResult{
		BlobID:           id,
		RetrievalURL:     RetrievalURL(aggregator, id),
		AlreadyCertified: already,
		RawResponse:      body,
	}, nil
}

func (p *HTTPPublisher) Fetch(ctx context.Context, network config.Network, blobID string) ([]byte, error) {
	ep := p.endpoints[network]
	if ep.Aggregator == "" {
		return nil, fmt.Errorf("no aggregator configured for %s", network)
	}
	if p.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.attemptTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, RetrievalURL(ep.Aggregator, blobID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return nil, fmt.Errorf("aggregator returned status %d for blob %s", resp.StatusCode, blobID)
	}
	return body, nil
}

func RetrievalURL(aggregator, blobID string) string {
	return fmt.Sprintf("%s/v1/%s", strings.TrimRight(aggregator, "/"), url.PathEscape(blobID))
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
