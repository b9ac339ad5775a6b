package chain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/foxseedlab/plantbuddy/internal/wallet"
)

const (
	InsufficientGasMessage = "Insufficient SUI for transaction fees. Please add more SUI to your wallet."
	maxErrorMessageLength  = 240
)

var gasKeywords = []string{"no valid gas coins", "insufficient", "gas"}

type Certifier interface {
	Certify(ctx context.Context, blobID string, meta Metadata, signer wallet.Wallet, network config.Network) Outcome
}

type MoveCertifier struct {
	contracts map[config.Network]config.ChainContract
	module    string
	function  string
}

func NewMoveCertifier(contracts map[config.Network]config.ChainContract, module, function string) *MoveCertifier {
	return &MoveCertifier{contracts: contracts, module: module, function: function}
}

// Certify records a stored blob on chain. It never returns an error: every
// failure is folded into an Outcome that still carries the blob id.
func (c *MoveCertifier) Certify(ctx context.Context, blobID string, meta Metadata, signer wallet.Wallet, network config.Network) (out Outcome) {
	out = Outcome{Status: StoredNotCertified, BlobID: blobID}

	contract, ok := c.contracts[network]
	if !ok || !contract.Configured() {
		out.ErrorMessage = fmt.Sprintf("certification contract is not configured for %s", network)
		slog.Info("skip certification", "reason", "contract_not_configured", "network", network, "blob_id", blobID)
		return out
	}

	txSigner, ok := signer.(TransactionSigner)
	if signer == nil || !ok {
		out.ErrorMessage = "connected wallet cannot sign transactions"
		slog.Info("skip certification", "reason", "signer_unavailable", "network", network, "blob_id", blobID)
		return out
	}

	if err := ctx.Err(); err != nil {
		out.ErrorMessage = "certification canceled"
		return out
	}

	tx := c.BuildTransaction(blobID, meta, network, contract)
	tx.Sender = signer.Address()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("signer panicked", "panic", r, "blob_id", blobID)
			out = Outcome{
				Status:       StoredCertificationFailed,
				BlobID:       blobID,
				ErrorMessage: truncateMessage(fmt.Sprint(r)),
			}
		}
	}()

	res, err := txSigner.SignAndExecuteTransaction(ctx, tx)
	if err != nil {
		out = classifyFailure(blobID, err)
		slog.Warn("certification failed",
			"blob_id", blobID,
			"network", network,
			"status", out.Status,
			"error", err,
		)
		return out
	}
	if res.Digest == "" {
		out.Status = StoredCertificationFailed
		out.ErrorMessage = "signer returned no transaction digest"
		return out
	}

	slog.Info("blob certified", "blob_id", blobID, "tx_digest", res.Digest, "network", network)
	return Outcome{Status: Certified, BlobID: blobID, TxDigest: res.Digest}
}

// BuildTransaction assembles the single move call that registers the blob.
func (c *MoveCertifier) BuildTransaction(blobID string, meta Metadata, network config.Network, contract config.ChainContract) Transaction {
	return Transaction{
		Network: string(network),
		Calls: []MoveCall{{
			Target: MoveTarget(contract.PackageID, c.module, c.function),
			Arguments: []Argument{
				ObjectArg(contract.RegistryID),
				StringArg(blobID),
				StringArg(meta.Title),
				StringArg(meta.Description),
				U64Arg(nonNegative(meta.EventCount)),
				U64Arg(nonNegative(meta.SizeBytes)),
			},
		}},
	}
}

func classifyFailure(blobID string, err error) Outcome {
	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, kw := range gasKeywords {
		if strings.Contains(lower, kw) {
			return Outcome{Status: StoredInsufficientGas, BlobID: blobID, ErrorMessage: InsufficientGasMessage}
		}
	}
	if strings.TrimSpace(msg) == "" {
		msg = "unknown certification error"
	}
	return Outcome{Status: StoredCertificationFailed, BlobID: blobID, ErrorMessage: truncateMessage(msg)}
}

func truncateMessage(s string) string {
	r := []rune(s)
	if len(r) <= maxErrorMessageLength {
		return s
	}
	return string(r[:maxErrorMessageLength]) + "..."
}

func nonNegative(n int) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
