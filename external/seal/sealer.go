package seal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/foxseedlab/plantbuddy/internal/seal"
)

// DelaySealer waits for the configured delay and passes the payload through
// unchanged. Nothing is encrypted.
type DelaySealer struct {
	delay time.Duration
}

func NewDelaySealer(delay time.Duration) *DelaySealer {
	return &DelaySealer{delay: delay}
}

func (d *DelaySealer) Seal(ctx context.Context, plaintext []byte) (seal.Sealed, error) {
	if err := wait(ctx, d.delay); err != nil {
		return seal.Sealed{}, err
	}
	return seal.Sealed{Payload: plaintext, Scheme: seal.SchemeNone}, nil
}

// AgeSealer encrypts to X25519 recipients and ASCII-armors the result.
type AgeSealer struct {
	delay      time.Duration
	recipients []age.Recipient
}

func NewAgeSealer(recipientKeys []string, delay time.Duration) (*AgeSealer, error) {
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		r, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, r)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	return &AgeSealer{delay: delay, recipients: recipients}, nil
}

func (a *AgeSealer) Seal(ctx context.Context, plaintext []byte) (seal.Sealed, error) {
	if err := wait(ctx, a.delay); err != nil {
		return seal.Sealed{}, err
	}

	var buf bytes.Buffer
	armored := armor.NewWriter(&buf)
	w, err := age.Encrypt(armored, a.recipients...)
	if err != nil {
		return seal.Sealed{}, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.Copy(w, bytes.NewReader(plaintext)); err != nil {
		return seal.Sealed{}, fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := w.Close(); err != nil {
		return seal.Sealed{}, fmt.Errorf("finalizing age encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return seal.Sealed{}, fmt.Errorf("finalizing armor: %w", err)
	}
	return seal.Sealed{Payload: buf.Bytes(), Scheme: seal.SchemeAge}, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
