// Package api provides the relay HTTP server: the rendering endpoint, the
// webhook chat transport and read access to stored turns.
package api

import (
	"log/slog"
	"net/http"

	"github.com/papercomputeco/relay/pkg/metrics"
	"github.com/papercomputeco/relay/pkg/storage"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Storer serves /v1/turns. Optional.
	Storer storage.Driver

	// Bot answers webhook messages on /v1/messages. Optional. Its Sender
	// must be WebhookSender so replies land in the HTTP response.
	Bot MessageHandler

	// Metrics counts renders and is exposed on /metrics. Optional.
	Metrics *metrics.Metrics

	// MCP is mounted on /mcp when set.
	MCP http.Handler

	Logger *slog.Logger
}
