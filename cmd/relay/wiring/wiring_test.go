package wiring_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/relay/cmd/relay/wiring"
	"github.com/papercomputeco/relay/pkg/config"
	"github.com/papercomputeco/relay/pkg/eventstream/kafka"
	"github.com/papercomputeco/relay/pkg/eventstream/nop"
	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/storage/inmemory"
	"github.com/papercomputeco/relay/pkg/storage/sqlite"
	"github.com/papercomputeco/relay/pkg/watsonx"
)

var _ = Describe("ResolveConfig", func() {
	var (
		dir    string
		cmd    *cobra.Command
		listen string
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()

		cmd = &cobra.Command{Use: "test"}
		cmd.Flags().String("config-dir", dir, "")
		config.AddStringFlag(cmd, config.Flags, config.FlagListen, &listen)
	})

	It("returns defaults without a config file", func() {
		cfg, err := wiring.ResolveConfig(cmd, config.FlagListen)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Listen).To(Equal(config.NewDefaultConfig().API.Listen))
		Expect(cfg.Bot.Prefix).To(Equal("!"))
	})

	It("reads config.toml", func() {
		toml := "[api]\nlisten = \":9000\"\n\n[bot]\nprefix = \"/\"\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600)).To(Succeed())

		cfg, err := wiring.ResolveConfig(cmd, config.FlagListen)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Listen).To(Equal(":9000"))
		Expect(cfg.Bot.Prefix).To(Equal("/"))
	})

	It("prefers a changed flag over config.toml", func() {
		toml := "[api]\nlisten = \":9000\"\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600)).To(Succeed())
		Expect(cmd.Flags().Set("listen", ":7000")).To(Succeed())

		cfg, err := wiring.ResolveConfig(cmd, config.FlagListen)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Listen).To(Equal(":7000"))
	})
})

var _ = Describe("NewStorageDriver", func() {
	ctx := context.Background()

	It("defaults to memory", func() {
		driver, err := wiring.NewStorageDriver(ctx, config.StorageConfig{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(driver.Close)
		Expect(driver).To(BeAssignableToTypeOf(&inmemory.Driver{}))
	})

	It("uses SQLite when a path is set", func() {
		path := filepath.Join(GinkgoT().TempDir(), "relay.db")

		driver, err := wiring.NewStorageDriver(ctx, config.StorageConfig{SQLitePath: path}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(driver.Close)
		Expect(driver).To(BeAssignableToTypeOf(&sqlite.SQLiteDriver{}))
	})
})

var _ = Describe("NewPublisher", func() {
	It("is a no-op without brokers", func() {
		p, err := wiring.NewPublisher(config.EventStreamConfig{Topic: "t"}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&nop.Publisher{}))
	})

	It("writes to Kafka when brokers are set", func() {
		p, err := wiring.NewPublisher(config.EventStreamConfig{
			Brokers: "localhost:9092, localhost:9093",
			Topic:   "relay.turns",
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(p.Close)
		Expect(p).To(BeAssignableToTypeOf(&kafka.Publisher{}))
	})

	It("rejects brokers without a topic", func() {
		_, err := wiring.NewPublisher(config.EventStreamConfig{Brokers: "localhost:9092"}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("NewLLMClient", func() {
	cfg := config.ProviderConfig{
		ScoringURL: "https://example.invalid/ml/v4/deployments/x/ai_service_stream",
		AuthURL:    "https://iam.example.invalid/identity/token",
		Timeout:    "5s",
	}

	It("requires an API key", func() {
		_, _, err := wiring.NewLLMClient(cfg, "", logger.Nop(), nil)
		Expect(err).To(MatchError(watsonx.ErrMissingAPIKey))
	})

	It("requires a scoring URL", func() {
		_, _, err := wiring.NewLLMClient(config.ProviderConfig{}, "key", logger.Nop(), nil)
		Expect(err).To(MatchError(watsonx.ErrMissingScoringURL))
	})

	It("returns the client and its token source", func() {
		client, tokens, err := wiring.NewLLMClient(cfg, "key", logger.Nop(), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(client).NotTo(BeNil())
		Expect(tokens).NotTo(BeNil())
	})
})
