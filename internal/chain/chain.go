package chain

import (
	"context"
	"fmt"
)

type ArgumentType string

const (
	ArgObject ArgumentType = "object"
	ArgString ArgumentType = "string"
	ArgU64    ArgumentType = "u64"
)

type Argument struct {
	Type  ArgumentType `json:"type"`
	Value any          `json:"value"`
}

func ObjectArg(id string) Argument { return Argument{Type: ArgObject, Value: id} }
func StringArg(s string) Argument { return Argument{Type: ArgString, Value: s} }
func U64Arg(n uint64) Argument { return Argument{Type: ArgU64, Value: n} }

type MoveCall struct {
	Target    string     `json:"target"`
	Arguments []Argument `json:"arguments"`
}

func MoveTarget(packageID, module, function string) string {
	return fmt.Sprintf("%s::%s::%s", packageID, module, function)
}

// Transaction is one programmable transaction handed to a signer.
type Transaction struct {
	Network string     `json:"network"`
	Sender  string     `json:"sender,omitempty"`
	Calls   []MoveCall `json:"calls"`
}

type ExecutionResult struct {
	Digest string `json:"digest"`
}

// TransactionSigner signs and submits a transaction for its connected identity.
type TransactionSigner interface {
	SignAndExecuteTransaction(ctx context.Context, tx Transaction) (ExecutionResult, error)
}

type Status string

const (
	Certified                 Status = "certified"
	StoredNotCertified        Status = "stored_not_certified"
	StoredInsufficientGas     Status = "stored_insufficient_gas"
	StoredCertificationFailed Status = "stored_certification_failed"
)

// Outcome always carries the blob id. TxDigest is set only when Status is Certified.
type Outcome struct {
	Status       Status
	BlobID       string
	TxDigest     string
	ErrorMessage string
}

func (o Outcome) IsCertified() bool {
	return o.Status == Certified && o.TxDigest != ""
}

type Metadata struct {
	Title       string
	Description string
	EventCount  int
	SizeBytes   int
}
