package seal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/foxseedlab/plantbuddy/internal/seal"
)

func TestDelaySealer_PassesThrough(t *testing.T) {
	s := NewDelaySealer(10 * time.Millisecond)
	started := time.Now()
	out, err := s.Seal(context.Background(), []byte("transcript"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out.Payload) != "transcript" || out.Encrypted() {
		t.Fatalf("unexpected sealed payload: %+v", out)
	}
	if time.Since(started) < 10*time.Millisecond {
		t.Fatal("expected the configured delay to elapse")
	}
}

func TestDelaySealer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewDelaySealer(time.Second).Seal(ctx, []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAgeSealer_RoundTrip(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}
	s, err := NewAgeSealer([]string{identity.Recipient().String()}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plaintext := []byte("PLANTBUDDY SESSION TRANSCRIPT\n[12:00:00] USER: hi")
	out, err := s.Seal(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Scheme != seal.SchemeAge || !out.Encrypted() {
		t.Fatalf("unexpected scheme: %s", out.Scheme)
	}
	if !strings.HasPrefix(string(out.Payload), armor.Header) {
		t.Fatalf("expected armored payload, got %q", out.Payload[:20])
	}
	if bytes.Contains(out.Payload, []byte("USER: hi")) {
		t.Fatal("payload leaked plaintext")
	}

	r, err := age.Decrypt(armor.NewReader(bytes.NewReader(out.Payload)), identity)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read plaintext: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestNewAgeSealer_RejectsBadKeys(t *testing.T) {
	if _, err := NewAgeSealer([]string{"not-a-key"}, 0); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := NewAgeSealer([]string{" "}, 0); err == nil {
		t.Fatal("expected error without recipients")
	}
}
