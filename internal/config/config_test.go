package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:            "development",
		DefaultNetwork: NetworkTestnet,
		StorageEpochs:  1,
		Storage: map[Network]StorageEndpoints{
			NetworkTestnet: {
				Publishers: []string{"https://publisher.walrus-testnet.walrus.space"},
				Aggregator: "https://aggregator.walrus-testnet.walrus.space",
			},
			NetworkMainnet: {
				Publishers: []string{"https://publisher.walrus.space"},
				Aggregator: "https://aggregator.walrus.space",
			},
		},
		StorageAttemptTimeout: 12 * time.Second,
		StorageRetryPasses:    1,
		StorageRetryBackoff:   300 * time.Millisecond,
		ChainModule:           "plantbuddy_blob",
		ChainFunction:         "certify_blob",
		EncryptionDelay:       800 * time.Millisecond,
		TranscriptTimezone:    "UTC",
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_UnknownNetwork(t *testing.T) {
	cfg := validConfig()
	cfg.DefaultNetwork = "DEVNET"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown network")
	}
}

func TestValidate_MissingPublishers(t *testing.T) {
	cfg := validConfig()
	cfg.Storage[NetworkMainnet] = StorageEndpoints{Aggregator: "https://aggregator.walrus.space"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when mainnet publishers are empty")
	}
}

func TestValidate_InvalidPublisherURL(t *testing.T) {
	cfg := validConfig()
	cfg.Storage[NetworkTestnet] = StorageEndpoints{
		Publishers: []string{"ftp://publisher"},
		Aggregator: "https://aggregator.walrus-testnet.walrus.space",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http publisher")
	}
}

func TestValidate_NegativeRetryPasses(t *testing.T) {
	cfg := validConfig()
	cfg.StorageRetryPasses = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative retry passes")
	}
}

func TestValidate_DiscordNeedsBothFields(t *testing.T) {
	cfg := validConfig()
	cfg.DiscordToken = "token"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when discord channel is missing")
	}
	cfg.DiscordChannelID = "channel"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_InvalidTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.TranscriptTimezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestParseNetwork(t *testing.T) {
	n, err := ParseNetwork(" mainnet ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != NetworkMainnet {
		t.Fatalf("expected MAINNET, got %s", n)
	}
	if _, err := ParseNetwork("devnet"); err == nil {
		t.Fatal("expected error for devnet")
	}
}

func TestChainContract_Configured(t *testing.T) {
	if (ChainContract{PackageID: "0x1"}).Configured() {
		t.Fatal("expected registry id to be required")
	}
	if !(ChainContract{PackageID: "0x1", RegistryID: "0x2"}).Configured() {
		t.Fatal("expected configured contract")
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode")
	}
	cfg.Env = "production"
	if cfg.IsDevelopment() {
		t.Fatal("expected non-development mode")
	}
}
