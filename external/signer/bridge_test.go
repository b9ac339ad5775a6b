package signer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foxseedlab/plantbuddy/internal/chain"
	"github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/foxseedlab/plantbuddy/internal/wallet"
)

func newSignerServer(t *testing.T, execute http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/account", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Sui Wallet","address":"0x1234567890abcdef"}`))
	})
	if execute != nil {
		mux.HandleFunc("/v1/transactions", execute)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestBridge_ConnectLoadsAccount(t *testing.T) {
	server := newSignerServer(t, nil)
	b := NewBridge(server.URL+"/", server.Client())
	if err := b.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Name() != "Sui Wallet" || b.Address() != "0x1234567890abcdef" {
		t.Fatalf("unexpected account: %s %s", b.Name(), b.Address())
	}
}

func TestBridge_SignAndExecute(t *testing.T) {
	var got chain.Transaction
	server := newSignerServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"digest":"TXD1"}`))
	})
	b := NewBridge(server.URL, server.Client())

	res, err := b.SignAndExecuteTransaction(context.Background(), chain.Transaction{
		Network: "TESTNET",
		Calls:   []chain.MoveCall{{Target: "0xpkg::plantbuddy_blob::certify_blob", Arguments: []chain.Argument{chain.StringArg("blob-1")}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Digest != "TXD1" || len(got.Calls) != 1 || got.Calls[0].Target != "0xpkg::plantbuddy_blob::certify_blob" {
		t.Fatalf("unexpected exchange: %+v %+v", res, got)
	}
}

func TestBridge_ErrorMessagePassesThrough(t *testing.T) {
	server := newSignerServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"No valid gas coins found for the transaction."}`))
	})
	b := NewBridge(server.URL, server.Client())
	_, err := b.SignAndExecuteTransaction(context.Background(), chain.Transaction{})
	if err == nil || !strings.Contains(err.Error(), "No valid gas coins") {
		t.Fatalf("expected signer message, got %v", err)
	}
}

func TestBridge_CertifiesThroughCertifier(t *testing.T) {
	server := newSignerServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"InsufficientGas"}`))
	})
	b := NewBridge(server.URL, server.Client())
	if err := b.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	var w wallet.Wallet = b
	certifier := chain.NewMoveCertifier(map[config.Network]config.ChainContract{
		config.NetworkTestnet: {PackageID: "0xpkg", RegistryID: "0xreg"},
	}, "plantbuddy_blob", "certify_blob")
	out := certifier.Certify(context.Background(), "blob-1", chain.Metadata{Title: "t"}, w, config.NetworkTestnet)
	if out.Status != chain.StoredInsufficientGas || out.BlobID != "blob-1" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}
