package config

import (
	"testing"
	"time"

	internalconfig "github.com/foxseedlab/plantbuddy/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_NETWORK", "mainnet")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultNetwork != internalconfig.NetworkMainnet {
		t.Fatalf("unexpected network: %s", cfg.DefaultNetwork)
	}
	testnet := cfg.StorageFor(internalconfig.NetworkTestnet)
	if len(testnet.Publishers) != 5 {
		t.Fatalf("expected 5 default testnet publishers, got %d", len(testnet.Publishers))
	}
	if testnet.Publishers[0] != "https://publisher.walrus-testnet.walrus.space" {
		t.Fatalf("unexpected primary publisher: %s", testnet.Publishers[0])
	}
	if cfg.StorageAttemptTimeout != 12*time.Second {
		t.Fatalf("unexpected attempt timeout: %s", cfg.StorageAttemptTimeout)
	}
	if cfg.ChainFor(internalconfig.NetworkTestnet).Configured() {
		t.Fatal("expected chain contract to be unconfigured by default")
	}
}

func TestLoad_InvalidNetwork(t *testing.T) {
	t.Setenv("STORAGE_NETWORK", "devnet")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid network")
	}
}

func TestLoad_PublisherOverride(t *testing.T) {
	t.Setenv("STORAGE_TESTNET_PUBLISHERS", "https://a.example,https://b.example")
	t.Setenv("CHAIN_TESTNET_PACKAGE_ID", "0xpkg")
	t.Setenv("CHAIN_TESTNET_REGISTRY_ID", "0xreg")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := cfg.StorageFor(internalconfig.NetworkTestnet).Publishers
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected publishers: %+v", got)
	}
	if !cfg.ChainFor(internalconfig.NetworkTestnet).Configured() {
		t.Fatal("expected testnet chain contract to be configured")
	}
}
