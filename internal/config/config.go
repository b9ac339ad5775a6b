package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Network string

const (
	NetworkTestnet Network = "TESTNET"
	NetworkMainnet Network = "MAINNET"
)

func ParseNetwork(s string) (Network, error) {
	switch Network(strings.ToUpper(strings.TrimSpace(s))) {
	case NetworkTestnet:
		return NetworkTestnet, nil
	case NetworkMainnet:
		return NetworkMainnet, nil
	default:
		return "", fmt.Errorf("unknown network %q (want TESTNET or MAINNET)", s)
	}
}

// StorageEndpoints is the ordered publisher list plus the aggregator used for reads.
type StorageEndpoints struct {
	Publishers []string
	Aggregator string
}

// ChainContract identifies the deployed certification contract on one network.
type ChainContract struct {
	PackageID  string
	RegistryID string
}

func (c ChainContract) Configured() bool {
	return strings.TrimSpace(c.PackageID) != "" && strings.TrimSpace(c.RegistryID) != ""
}

type Config struct {
	Env         string
	DatabaseURL string

	DefaultNetwork        Network
	StorageEpochs         int
	Storage               map[Network]StorageEndpoints
	StorageAttemptTimeout time.Duration
	StorageRetryPasses    int
	StorageRetryBackoff   time.Duration

	Chain         map[Network]ChainContract
	ChainModule   string
	ChainFunction string
	SignerURL     string

	GeminiAPIKey    string
	GeminiModels    []string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	AnalysisTimeout time.Duration

	EncryptionDelay         time.Duration
	EncryptionAgeRecipients []string

	TranscriptTimezone string
	NotifyWebhookURL   string
	DiscordToken       string
	DiscordChannelID   string
}

func (c *Config) Validate() error {
	if _, err := ParseNetwork(string(c.DefaultNetwork)); err != nil {
		return fmt.Errorf("STORAGE_NETWORK is invalid: %w", err)
	}
	if c.StorageEpochs <= 0 {
		return fmt.Errorf("STORAGE_EPOCHS must be positive, got %d", c.StorageEpochs)
	}
	for _, n := range []Network{NetworkTestnet, NetworkMainnet} {
		ep, ok := c.Storage[n]
		if !ok || len(ep.Publishers) == 0 {
			return fmt.Errorf("at least one %s storage publisher is required", n)
		}
		for _, p := range ep.Publishers {
			if err := validateBaseURL(p); err != nil {
				return fmt.Errorf("%s storage publisher %q is invalid: %w", n, p, err)
			}
		}
		if err := validateBaseURL(ep.Aggregator); err != nil {
			return fmt.Errorf("%s storage aggregator %q is invalid: %w", n, ep.Aggregator, err)
		}
	}
	if c.StorageAttemptTimeout <= 0 {
		return fmt.Errorf("STORAGE_ATTEMPT_TIMEOUT must be positive, got %s", c.StorageAttemptTimeout)
	}
	if c.StorageRetryPasses < 0 {
		return fmt.Errorf("STORAGE_RETRY_PASSES must not be negative, got %d", c.StorageRetryPasses)
	}
	if c.StorageRetryBackoff < 0 {
		return fmt.Errorf("STORAGE_RETRY_BACKOFF must not be negative, got %s", c.StorageRetryBackoff)
	}
	if c.ChainModule == "" || c.ChainFunction == "" {
		return fmt.Errorf("CHAIN_MODULE and CHAIN_FUNCTION are required")
	}
	if c.EncryptionDelay < 0 {
		return fmt.Errorf("ENCRYPTION_DELAY must not be negative, got %s", c.EncryptionDelay)
	}
	if c.TranscriptTimezone == "" {
		return fmt.Errorf("TRANSCRIPT_TIMEZONE is required")
	}
	if _, err := time.LoadLocation(c.TranscriptTimezone); err != nil {
		return fmt.Errorf("TRANSCRIPT_TIMEZONE is invalid: %w", err)
	}
	if (c.DiscordToken == "") != (c.DiscordChannelID == "") {
		return fmt.Errorf("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) StorageFor(n Network) StorageEndpoints {
	return c.Storage[n]
}

func (c *Config) ChainFor(n Network) ChainContract {
	return c.Chain[n]
}

// Location falls back to UTC when the configured zone cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TranscriptTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
