package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/relay/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads config.toml from the
// resolved .relay/ directory, and binds RELAY_* environment variables.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (RELAY_API_LISTEN, RELAY_BOT_PREFIX, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(target)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes the effective configuration held by v.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Version: v.GetInt("version"),
		Bot: BotConfig{
			Prefix: v.GetString("bot.prefix"),
		},
		Provider: ProviderConfig{
			ScoringURL: v.GetString("provider.scoring_url"),
			AuthURL:    v.GetString("provider.auth_url"),
			Timeout:    v.GetString("provider.timeout"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Storage: StorageConfig{
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Dedupe: DedupeConfig{
			MaxMessages:      v.GetInt("dedupe.max_messages"),
			CleanupThreshold: v.GetInt("dedupe.cleanup_threshold"),
		},
		EventStream: EventStreamConfig{
			Brokers: v.GetString("eventstream.brokers"),
			Topic:   v.GetString("eventstream.topic"),
		},
	}
	applyDefaults(cfg)
	return cfg
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("bot.prefix", d.Bot.Prefix)

	v.SetDefault("provider.scoring_url", d.Provider.ScoringURL)
	v.SetDefault("provider.auth_url", d.Provider.AuthURL)
	v.SetDefault("provider.timeout", d.Provider.Timeout)

	v.SetDefault("api.listen", d.API.Listen)

	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	v.SetDefault("dedupe.max_messages", d.Dedupe.MaxMessages)
	v.SetDefault("dedupe.cleanup_threshold", d.Dedupe.CleanupThreshold)

	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}
