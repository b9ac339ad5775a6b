package seal

import "context"

type Scheme string

const (
	// SchemeNone means the payload is uploaded as plaintext.
	SchemeNone Scheme = "none"
	SchemeAge  Scheme = "age-armor"
)

type Sealed struct {
	Payload []byte
	Scheme  Scheme
}

// Encrypted reports whether payloads under this scheme are unreadable without a key.
func (s Scheme) Encrypted() bool {
	return s != "" && s != SchemeNone
}

func (s Sealed) Encrypted() bool {
	return s.Scheme.Encrypted()
}

// Sealer prepares the transcript bytes for upload.
type Sealer interface {
	Seal(ctx context.Context, plaintext []byte) (Sealed, error)
}
