package session

import (
	"fmt"

	"github.com/foxseedlab/plantbuddy/internal/chain"
)

const (
	messageStorageUnavailable = "Could not reach any storage endpoint. Nothing was stored, please try the upload again."
	messageSignerUnavailable  = "The connected wallet is not ready. Reconnect it and try again."
	messageNoSignerConnected  = "Connect a wallet before uploading."
	messageEmptySession       = "Record at least one interaction before uploading."
	messageUploadInProgress   = "An upload is already in progress. Wait for it to finish."
	messageEncryptionFailed   = "The transcript could not be encrypted. Nothing was stored."
	messageCanceled           = "Upload canceled before any data was stored."
	messageUnknown            = "The upload failed."

	messageListedFormat              = "Stored and certified on chain (transaction %s)."
	messageNotCertifiedFormat        = "Your data is safely stored (blob %s) but was not certified on chain. Connect a wallet that can sign and retry certification."
	messageInsufficientGasFormat     = "Your data is safely stored (blob %s). %s Then retry certification."
	messageCertificationFailedFormat = "Your data is safely stored (blob %s) but certification failed (%s). You can retry certification."
)

func errorMessage(kind ErrorKind) string {
	switch kind {
	case ErrStorageUnavailable:
		return messageStorageUnavailable
	case ErrSignerUnavailable:
		return messageSignerUnavailable
	case ErrNoSignerConnected:
		return messageNoSignerConnected
	case ErrEmptySession:
		return messageEmptySession
	case ErrUploadInProgress:
		return messageUploadInProgress
	case ErrEncryptionFailed:
		return messageEncryptionFailed
	case ErrCanceled:
		return messageCanceled
	default:
		return messageUnknown
	}
}

// outcomeMessage never says data was lost: by the time certification runs the blob is stored.
func outcomeMessage(o chain.Outcome) string {
	switch o.Status {
	case chain.Certified:
		return fmt.Sprintf(messageListedFormat, o.TxDigest)
	case chain.StoredInsufficientGas:
		return fmt.Sprintf(messageInsufficientGasFormat, o.BlobID, o.ErrorMessage)
	case chain.StoredCertificationFailed:
		return fmt.Sprintf(messageCertificationFailedFormat, o.BlobID, o.ErrorMessage)
	default:
		return fmt.Sprintf(messageNotCertifiedFormat, o.BlobID)
	}
}
