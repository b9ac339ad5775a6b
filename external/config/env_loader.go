package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/joho/godotenv"
)

type envConfig struct {
	Env                      string        `env:"ENV" envDefault:"production"`
	DatabaseURL              string        `env:"DATABASE_URL"`
	StorageNetwork           string        `env:"STORAGE_NETWORK" envDefault:"TESTNET"`
	StorageEpochs            int           `env:"STORAGE_EPOCHS" envDefault:"1"`
	StorageTestnetPublishers []string      `env:"STORAGE_TESTNET_PUBLISHERS" envSeparator:"," envDefault:"https://publisher.walrus-testnet.walrus.space,https://walrus-testnet-publisher.nodes.guru,https://walrus-testnet-publisher.everstake.one,https://publisher.testnet.walrus.atalma.io,https://walrus-testnet-publisher.stakely.io"`
	StorageTestnetAggregator string        `env:"STORAGE_TESTNET_AGGREGATOR" envDefault:"https://aggregator.walrus-testnet.walrus.space"`
	StorageMainnetPublishers []string      `env:"STORAGE_MAINNET_PUBLISHERS" envSeparator:"," envDefault:"https://publisher.walrus.space"`
	StorageMainnetAggregator string        `env:"STORAGE_MAINNET_AGGREGATOR" envDefault:"https://aggregator.walrus.space"`
	StorageAttemptTimeout    time.Duration `env:"STORAGE_ATTEMPT_TIMEOUT" envDefault:"12s"`
	StorageRetryPasses       int           `env:"STORAGE_RETRY_PASSES" envDefault:"1"`
	StorageRetryBackoff      time.Duration `env:"STORAGE_RETRY_BACKOFF" envDefault:"300ms"`
	ChainTestnetPackageID    string        `env:"CHAIN_TESTNET_PACKAGE_ID"`
	ChainTestnetRegistryID   string        `env:"CHAIN_TESTNET_REGISTRY_ID"`
	ChainMainnetPackageID    string        `env:"CHAIN_MAINNET_PACKAGE_ID"`
	ChainMainnetRegistryID   string        `env:"CHAIN_MAINNET_REGISTRY_ID"`
	ChainModule              string        `env:"CHAIN_MODULE" envDefault:"plantbuddy_blob"`
	ChainFunction            string        `env:"CHAIN_FUNCTION" envDefault:"certify_blob"`
	SignerURL                string        `env:"SIGNER_URL"`
	GeminiAPIKey             string        `env:"GEMINI_API_KEY"`
	GeminiModels             []string      `env:"GEMINI_MODELS" envSeparator:"," envDefault:"gemini-2.0-flash,gemini-1.5-flash,gemini-1.5-pro"`
	OpenAIAPIKey             string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL            string        `env:"OPENAI_BASE_URL"`
	OpenAIModel              string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AnalysisTimeout          time.Duration `env:"ANALYSIS_TIMEOUT" envDefault:"20s"`
	EncryptionDelay          time.Duration `env:"ENCRYPTION_DELAY" envDefault:"800ms"`
	EncryptionAgeRecipients  []string      `env:"ENCRYPTION_AGE_RECIPIENTS" envSeparator:","`
	TranscriptTimezone       string        `env:"TRANSCRIPT_TIMEZONE" envDefault:"UTC"`
	NotifyWebhookURL         string        `env:"NOTIFY_WEBHOOK_URL"`
	DiscordToken             string        `env:"DISCORD_TOKEN"`
	DiscordChannelID         string        `env:"DISCORD_CHANNEL_ID"`
}

// Load reads an optional .env file (variables already set win) and then the environment.
func Load(dotenvPaths ...string) (*internalconfig.Config, error) {
	if err := godotenv.Load(dotenvPaths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read dotenv file: %w", err)
	}

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	network, err := internalconfig.ParseNetwork(raw.StorageNetwork)
	if err != nil {
		return nil, fmt.Errorf("STORAGE_NETWORK is invalid: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:            raw.Env,
		DatabaseURL:    raw.DatabaseURL,
		DefaultNetwork: network,
		StorageEpochs:  raw.StorageEpochs,
		Storage: map[internalconfig.Network]internalconfig.StorageEndpoints{
			internalconfig.NetworkTestnet: {
				Publishers: raw.StorageTestnetPublishers,
				Aggregator: raw.StorageTestnetAggregator,
			},
			internalconfig.NetworkMainnet: {
				Publishers: raw.StorageMainnetPublishers,
				Aggregator: raw.StorageMainnetAggregator,
			},
		},
		StorageAttemptTimeout: raw.StorageAttemptTimeout,
		StorageRetryPasses:    raw.StorageRetryPasses,
		StorageRetryBackoff:   raw.StorageRetryBackoff,
		Chain: map[internalconfig.Network]internalconfig.ChainContract{
			internalconfig.NetworkTestnet: {
				PackageID:  raw.ChainTestnetPackageID,
				RegistryID: raw.ChainTestnetRegistryID,
			},
			internalconfig.NetworkMainnet: {
				PackageID:  raw.ChainMainnetPackageID,
				RegistryID: raw.ChainMainnetRegistryID,
			},
		},
		ChainModule:             raw.ChainModule,
		ChainFunction:           raw.ChainFunction,
		SignerURL:               raw.SignerURL,
		GeminiAPIKey:            raw.GeminiAPIKey,
		GeminiModels:            raw.GeminiModels,
		OpenAIAPIKey:            raw.OpenAIAPIKey,
		OpenAIBaseURL:           raw.OpenAIBaseURL,
		OpenAIModel:             raw.OpenAIModel,
		AnalysisTimeout:         raw.AnalysisTimeout,
		EncryptionDelay:         raw.EncryptionDelay,
		EncryptionAgeRecipients: raw.EncryptionAgeRecipients,
		TranscriptTimezone:      raw.TranscriptTimezone,
		NotifyWebhookURL:        raw.NotifyWebhookURL,
		DiscordToken:            raw.DiscordToken,
		DiscordChannelID:        raw.DiscordChannelID,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
