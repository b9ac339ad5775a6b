package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/plantbuddy/internal/chain"
)

const requestTimeout = 60 * time.Second

// Bridge is a wallet backed by a local HTTP signing service. The service owns
// the keys; this side only sees the address and transaction digests.
type Bridge struct {
	baseURL string
	client  *http.Client

	mu      sync.RWMutex
	name    string
	address string
}

func NewBridge(baseURL string, client *http.Client) *Bridge {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	return &Bridge{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type accountResponse struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type executeResponse struct {
	Digest string `json:"digest"`
	Error  string `json:"error"`
}

// Connect loads the account the bridge signs for.
func (b *Bridge) Connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/v1/account", nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach signer: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("signer account returned status %d", resp.StatusCode)
	}
	var acc accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&acc); err != nil {
		return fmt.Errorf("failed to decode signer account: %w", err)
	}
	if acc.Address == "" {
		return errors.New("signer returned an empty address")
	}
	if acc.Name == "" {
		acc.Name = "signer-bridge"
	}

	b.mu.Lock()
	b.name = acc.Name
	b.address = acc.Address
	b.mu.Unlock()
	return nil
}

func (b *Bridge) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.name == "" {
		return "signer-bridge"
	}
	return b.name
}

func (b *Bridge) Address() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.address
}

func (b *Bridge) SignAndExecuteTransaction(ctx context.Context, tx chain.Transaction) (chain.ExecutionResult, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return chain.ExecutionResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return chain.ExecutionResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return chain.ExecutionResult{}, fmt.Errorf("failed to reach signer: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return chain.ExecutionResult{}, err
	}
	var out executeResponse
	_ = json.Unmarshal(raw, &out)

	if !isHTTPSuccessStatus(resp.StatusCode) {
		// The signer's own message carries the chain's reason, e.g. a gas shortfall.
		if out.Error != "" {
			return chain.ExecutionResult{}, errors.New(out.Error)
		}
		return chain.ExecutionResult{}, fmt.Errorf("signer returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out.Error != "" {
		return chain.ExecutionResult{}, errors.New(out.Error)
	}
	return chain.ExecutionResult{Digest: out.Digest}, nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
