// Package watsonx sends prompts to an IBM watsonx.ai deployment and returns
// the response body as a steps.RawChunk ready for rendering.
package watsonx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/provider"
	"github.com/papercomputeco/relay/pkg/llm/provider/openai"
	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/metrics"
	"github.com/papercomputeco/relay/pkg/steps"
)

// DefaultTimeout bounds a whole deployment request, retry included.
const DefaultTimeout = 60 * time.Second

// Client talks to a single watsonx deployment scoring endpoint.
type Client struct {
	scoringURL string
	tokens     TokenProvider
	wire       provider.Provider
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

// New creates a Client for the deployment at scoringURL.
func New(scoringURL string, tokens TokenProvider, opts ...Option) (*Client, error) {
	if strings.TrimSpace(scoringURL) == "" {
		return nil, ErrMissingScoringURL
	}
	if tokens == nil {
		return nil, errors.New("watsonx: token provider is required")
	}

	c := &Client{
		scoringURL: scoringURL,
		tokens:     tokens,
		wire:       openai.New(),
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send posts prompt as a single user message and returns the classified
// response body. A 401 triggers one token refresh and retry.
func (c *Client) Send(ctx context.Context, prompt string) (steps.RawChunk, error) {
	payload, err := c.wire.EncodeRequest(llm.NewPromptRequest(prompt, false))
	if err != nil {
		return steps.RawChunk{}, fmt.Errorf("encoding request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return steps.RawChunk{}, fmt.Errorf("getting IAM token: %w", err)
	}

	status, body, err := c.post(ctx, token, payload)
	if err != nil {
		return steps.RawChunk{}, err
	}

	if status == http.StatusUnauthorized {
		c.logger.Info("deployment rejected token, refreshing")

		token, err = c.tokens.Refresh(ctx)
		if err != nil {
			return steps.RawChunk{}, fmt.Errorf("refreshing IAM token: %w", err)
		}

		status, body, err = c.post(ctx, token, payload)
		if err != nil {
			return steps.RawChunk{}, err
		}
		if status == http.StatusUnauthorized {
			return steps.RawChunk{}, ErrUnauthorized
		}
	}

	if status < 200 || status >= 300 {
		return steps.RawChunk{}, &StatusError{StatusCode: status, Body: strings.TrimSpace(string(body))}
	}

	c.logger.Debug("deployment responded", "bytes", len(body))

	return steps.Classify(body), nil
}

func (c *Client) post(ctx context.Context, token string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scoringURL, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveLLM("error")
		return 0, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.ObserveLLM(strconv.Itoa(resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}
