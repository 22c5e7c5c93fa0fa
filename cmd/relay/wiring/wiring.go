// Package wiring builds the shared relay components (config, storage, event
// publisher, LLM client) from the effective configuration of a command.
package wiring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/relay/pkg/config"
	"github.com/papercomputeco/relay/pkg/eventstream"
	"github.com/papercomputeco/relay/pkg/eventstream/kafka"
	"github.com/papercomputeco/relay/pkg/eventstream/nop"
	"github.com/papercomputeco/relay/pkg/metrics"
	"github.com/papercomputeco/relay/pkg/storage"
	"github.com/papercomputeco/relay/pkg/storage/inmemory"
	"github.com/papercomputeco/relay/pkg/storage/postgres"
	"github.com/papercomputeco/relay/pkg/storage/sqlite"
	"github.com/papercomputeco/relay/pkg/watsonx"
)

// ResolveConfig returns the effective configuration for cmd: the flags named
// by flagKeys (registry keys of config.Flags) over RELAY_* env vars over
// config.toml over defaults.
func ResolveConfig(cmd *cobra.Command, flagKeys ...string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	return config.FromViper(v), nil
}

// NewStorageDriver picks the transcript store: Postgres when a DSN is set,
// then SQLite, then memory.
func NewStorageDriver(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Driver, error) {
	switch {
	case cfg.PostgresDSN != "":
		driver, err := postgres.NewDriver(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create Postgres driver: %w", err)
		}
		logger.Info("using Postgres storage")
		return driver, nil

	case cfg.SQLitePath != "":
		driver, err := sqlite.NewSQLiteDriver(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		logger.Info("using SQLite storage", "path", cfg.SQLitePath)
		return driver, nil

	default:
		logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil
	}
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func NewPublisher(cfg config.EventStreamConfig, logger *slog.Logger) (eventstream.Publisher, error) {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return nop.NewPublisher(), nil
	}

	p, err := kafka.NewPublisher(kafka.Config{
		Brokers: brokers,
		Topic:   cfg.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	logger.Info("publishing turn events", "brokers", brokers, "topic", cfg.Topic)
	return p, nil
}

// NewLLMClient builds the watsonx client for cfg authenticated with apiKey.
// The token source is returned so callers can swap the key later.
func NewLLMClient(cfg config.ProviderConfig, apiKey string, logger *slog.Logger, m *metrics.Metrics) (*watsonx.Client, *watsonx.IAMTokenSource, error) {
	if apiKey == "" {
		return nil, nil, watsonx.ErrMissingAPIKey
	}

	tokens := watsonx.NewIAMTokenSource(cfg.AuthURL, apiKey, nil)
	client, err := watsonx.New(cfg.ScoringURL, tokens,
		watsonx.WithTimeout(cfg.TimeoutDuration(watsonx.DefaultTimeout)),
		watsonx.WithLogger(logger),
		watsonx.WithMetrics(m),
	)
	if err != nil {
		return nil, nil, err
	}
	return client, tokens, nil
}
