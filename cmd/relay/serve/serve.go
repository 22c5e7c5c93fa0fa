// Package servecmder provides the serve command, which runs the chat bot
// webhook, the rendering API and the MCP endpoint on one listener.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/relay/api"
	"github.com/papercomputeco/relay/api/mcp"
	"github.com/papercomputeco/relay/cmd/relay/wiring"
	"github.com/papercomputeco/relay/pkg/bot"
	"github.com/papercomputeco/relay/pkg/config"
	"github.com/papercomputeco/relay/pkg/credentials"
	"github.com/papercomputeco/relay/pkg/dotdir"
	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/metrics"
	"github.com/papercomputeco/relay/pkg/seen"
	"github.com/papercomputeco/relay/pkg/watsonx"
	"github.com/papercomputeco/relay/pkg/worker"
)

const logFile = "relay.log"

type serveCommander struct {
	cfg       *config.Config
	configDir string
	debug     bool
	logger    *slog.Logger

	// flag targets; effective values are read from cfg
	listen      string
	prefix      string
	scoringURL  string
	authURL     string
	timeout     string
	sqlitePath  string
	postgresDSN string
	brokers     string
	topic       string
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagPrefix,
	config.FlagScoringURL,
	config.FlagAuthURL,
	config.FlagTimeout,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagKafkaBroker,
	config.FlagKafkaTopic,
}

const serveLongDesc string = `Run the relay server.

Serves on one listener:
  POST /v1/messages    webhook chat transport for the prefix command bot
  POST /v1/render      render raw provider output into chat lines
  GET  /v1/turns       stored transcripts (?chat_id=, /:hash, /:hash/history)
  GET  /metrics        Prometheus metrics
       /mcp            MCP streamable HTTP endpoint (render_response tool)

Answered queries are stored as chained turns (in memory, SQLite or Postgres)
and announced on Kafka when brokers are configured. Changes to the stored
IBM API key are picked up without a restart.`

const serveShortDesc string = "Run the relay server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := wiring.ResolveConfig(cmd, serveFlags...)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagPrefix, &cmder.prefix)
	config.AddStringFlag(cmd, config.Flags, config.FlagScoringURL, &cmder.scoringURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagAuthURL, &cmder.authURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBroker, &cmder.brokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.topic)

	return cmd
}

func (c *serveCommander) run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	closeLog, err := c.setupLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	m := metrics.New()

	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	apiKey, err := creds.ResolveKey(credentials.ProviderIBM)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	client, tokens, err := wiring.NewLLMClient(c.cfg.Provider, apiKey, c.logger, m)
	if err != nil {
		if errors.Is(err, watsonx.ErrMissingAPIKey) {
			return fmt.Errorf("%w: run 'relay auth ibm' or set %s", err,
				credentials.EnvVarForProvider(credentials.ProviderIBM))
		}
		return err
	}

	driver, err := wiring.NewStorageDriver(ctx, c.cfg.Storage, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := wiring.NewPublisher(c.cfg.EventStream, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: publisher,
		Metrics:   m,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	handler, err := bot.New(bot.Config{
		Prefix:   c.cfg.Bot.Prefix,
		LLM:      client,
		Sender:   api.WebhookSender(),
		Seen:     seen.New(c.cfg.Dedupe.MaxMessages, c.cfg.Dedupe.CleanupThreshold),
		Recorder: pool,
		Metrics:  m,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{Metrics: m, Logger: c.logger})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	server := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		Storer:     driver,
		Bot:        handler,
		Metrics:    m,
		MCP:        mcpServer.Handler(),
		Logger:     c.logger,
	})

	// Only the file-backed key is watched; an env var cannot change under us.
	if os.Getenv(credentials.EnvVarForProvider(credentials.ProviderIBM)) == "" {
		go func() {
			err := creds.Watch(ctx, credentials.ProviderIBM, func(key string) {
				c.logger.Info("IBM API key changed, refreshing token")
				tokens.SetAPIKey(key)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Warn("credentials watch stopped", "error", err)
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	c.logger.Info("relay ready",
		"listen", c.cfg.API.Listen,
		"prefix", handler.Prefix(),
	)

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("shutting down")
		return server.Shutdown()
	}
}

// setupLogger logs pretty output to stderr and JSON to relay.log in the
// .relay/ directory.
func (c *serveCommander) setupLogger() (func(), error) {
	path, err := dotdir.NewManager().Path(c.configDir, logFile)
	if err != nil {
		return nil, fmt.Errorf("resolving log file: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	c.logger = logger.Multi(
		logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(os.Stderr)),
		logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(f)),
	)

	return func() { _ = f.Close() }, nil
}
