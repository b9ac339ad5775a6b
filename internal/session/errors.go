package session

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrStorageUnavailable ErrorKind = "storage_unavailable"
	ErrSignerUnavailable  ErrorKind = "signer_unavailable"
	ErrNoSignerConnected  ErrorKind = "no_signer_connected"
	ErrEmptySession       ErrorKind = "empty_session"
	ErrUploadInProgress   ErrorKind = "upload_in_progress"
	ErrEncryptionFailed   ErrorKind = "encryption_failed"
	ErrCanceled           ErrorKind = "canceled"
)

// Error is returned only when nothing durable was produced.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Message: errorMessage(kind), Err: err}
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
