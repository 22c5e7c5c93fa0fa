package config

const (
	defaultPrefix    = "!"
	defaultAuthURL   = "https://iam.cloud.ibm.com/identity/token"
	defaultTimeout   = "60s"
	defaultListen    = ":8081"
	defaultTopic     = "relay.turns"
	defaultMaxSeen   = 1000
	defaultEvictSeen = 200
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Bot: BotConfig{
			Prefix: defaultPrefix,
		},
		Provider: ProviderConfig{
			AuthURL: defaultAuthURL,
			Timeout: defaultTimeout,
		},
		API: APIConfig{
			Listen: defaultListen,
		},
		Dedupe: DedupeConfig{
			MaxMessages:      defaultMaxSeen,
			CleanupThreshold: defaultEvictSeen,
		},
		EventStream: EventStreamConfig{
			Topic: defaultTopic,
		},
	}
}
