package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/foxseedlab/plantbuddy/internal/notify"
)

const (
	requestTimeout   = 10 * time.Second
	errorBodyLimit   = 512
	eventHeader      = "X-PlantBuddy-Event"
	deliveryHeader   = "X-PlantBuddy-Delivery"
	eventListingNew  = "listing.created"
	eventListingMint = "listing.minted"
)

// HTTPNotifier posts listing notices as JSON. Every delivery carries a fresh
// id so receivers can drop replays.
type HTTPNotifier struct {
	url    string
	client *http.Client
}

func NewHTTPNotifier(url string) *HTTPNotifier {
	return &HTTPNotifier{
		url:    url,
		client: &http.Client{Timeout: requestTimeout},
	}
}

func (n *HTTPNotifier) Name() string {
	return "webhook"
}

type listingPayload struct {
	Event      string               `json:"event"`
	DeliveryID string               `json:"deliveryId"`
	Listing    notify.ListingNotice `json:"listing"`
}

// eventFor separates certified listings from records that only reached storage.
func eventFor(notice notify.ListingNotice) string {
	if notice.TxDigest == "" {
		return eventListingMint
	}
	return eventListingNew
}

func (n *HTTPNotifier) NotifyListing(ctx context.Context, notice notify.ListingNotice) error {
	if n.url == "" {
		return nil
	}

	payload := listingPayload{
		Event:      eventFor(notice),
		DeliveryID: uuid.NewString(),
		Listing:    notice,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode listing notice: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(eventHeader, payload.Event)
	req.Header.Set(deliveryHeader, payload.DeliveryID)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery %s failed: %w", payload.DeliveryID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
