package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent relay configuration stored as config.toml
// in the .relay/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Bot         BotConfig         `toml:"bot"`
	Provider    ProviderConfig    `toml:"provider"`
	API         APIConfig         `toml:"api"`
	Storage     StorageConfig     `toml:"storage"`
	Dedupe      DedupeConfig      `toml:"dedupe"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// BotConfig holds chat command settings.
type BotConfig struct {
	Prefix string `toml:"prefix,omitempty"`
}

// ProviderConfig holds the watsonx deployment settings. The API key is not
// stored here; see the credentials package.
type ProviderConfig struct {
	ScoringURL string `toml:"scoring_url,omitempty"`
	AuthURL    string `toml:"auth_url,omitempty"`
	Timeout    string `toml:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout, returning def when it is empty or invalid.
func (p ProviderConfig) TimeoutDuration(def time.Duration) time.Duration {
	d, err := time.ParseDuration(p.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig selects the transcript store. PostgresDSN wins over
// SQLitePath; with neither set transcripts are kept in memory.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// DedupeConfig bounds the set of already handled chat message ids.
type DedupeConfig struct {
	MaxMessages      int `toml:"max_messages,omitempty"`
	CleanupThreshold int `toml:"cleanup_threshold,omitempty"`
}

// EventStreamConfig holds Kafka publishing settings. Brokers is a comma
// separated list; publishing is disabled when it is empty.
type EventStreamConfig struct {
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// BrokerList splits Brokers into its addresses.
func (e EventStreamConfig) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func intKey(key string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for %s: %q is not a non-negative integer", key, v)
			}
			*field(c) = n
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"bot.prefix": {
		get: func(c *Config) string { return c.Bot.Prefix },
		set: func(c *Config, v string) error {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("invalid value for bot.prefix: must not be blank")
			}
			c.Bot.Prefix = v
			return nil
		},
	},
	"provider.scoring_url": {
		get: func(c *Config) string { return c.Provider.ScoringURL },
		set: func(c *Config, v string) error { c.Provider.ScoringURL = v; return nil },
	},
	"provider.auth_url": {
		get: func(c *Config) string { return c.Provider.AuthURL },
		set: func(c *Config, v string) error { c.Provider.AuthURL = v; return nil },
	},
	"provider.timeout": {
		get: func(c *Config) string { return c.Provider.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for provider.timeout: %w", err)
			}
			c.Provider.Timeout = v
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"dedupe.max_messages":      intKey("dedupe.max_messages", func(c *Config) *int { return &c.Dedupe.MaxMessages }),
	"dedupe.cleanup_threshold": intKey("dedupe.cleanup_threshold", func(c *Config) *int { return &c.Dedupe.CleanupThreshold }),
	"eventstream.brokers": {
		get: func(c *Config) string { return c.EventStream.Brokers },
		set: func(c *Config, v string) error { c.EventStream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}
