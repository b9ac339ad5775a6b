package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/foxseedlab/plantbuddy/internal/attempt"
	"github.com/foxseedlab/plantbuddy/internal/config"
)

type PublishResult struct {
	BlobID       string
	RetrievalURL string
	// AlreadyCertified is true when the network recognised the payload and returned the existing id.
	AlreadyCertified bool
	RawResponse      []byte
}

type Publisher interface {
	Publish(ctx context.Context, network config.Network, payload []byte) (PublishResult, error)
	Fetch(ctx context.Context, network config.Network, blobID string) ([]byte, error)
}

type ErrorKind string

const (
	AllEndpointsExhausted ErrorKind = "all_endpoints_exhausted"
	NoEndpointsConfigured ErrorKind = "no_endpoints_configured"
)

type PublishError struct {
	Kind     ErrorKind
	Network  config.Network
	Attempts []attempt.Record
	Err      error
}

func (e *PublishError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "blob publish on %s failed (%s) after %d attempts", e.Network, e.Kind, len(e.Attempts))
	if n := len(e.Attempts); n > 0 {
		fmt.Fprintf(&b, ", last error: %v", e.Attempts[n-1].Err)
	}
	return b.String()
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
