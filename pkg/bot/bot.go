// Package bot implements the prefix command protocol of the chat assistant:
// it filters incoming chat messages, forwards queries to the LLM and sends the
// rendered lines back through a transport-neutral Sender.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/metrics"
	"github.com/papercomputeco/relay/pkg/render"
	"github.com/papercomputeco/relay/pkg/seen"
	"github.com/papercomputeco/relay/pkg/steps"
	"github.com/papercomputeco/relay/pkg/utils"
	"github.com/papercomputeco/relay/pkg/worker"
)

// DefaultPrefix starts every command.
const DefaultPrefix = "!"

// Replies sent back to the chat.
const (
	PongReply    = "🏓 Pong!"
	ErrorReply   = "❌ Error al procesar tu solicitud con el asistente."
	NoAnswerText = "El asistente procesó tu solicitud, pero no generó una respuesta."
)

// Message is one incoming chat message.
type Message struct {
	ID     string `json:"id"`
	ChatID string `json:"chat_id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Sender delivers a reply to a chat.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, chatID, text string) error

func (f SenderFunc) Send(ctx context.Context, chatID, text string) error {
	return f(ctx, chatID, text)
}

// Asker sends a prompt to the LLM and returns its raw output.
type Asker interface {
	Send(ctx context.Context, prompt string) (steps.RawChunk, error)
}

// Recorder persists answered queries. *worker.Pool implements it.
type Recorder interface {
	Enqueue(job worker.Job) bool
}

// Config wires a Handler.
type Config struct {
	// Prefix defaults to DefaultPrefix.
	Prefix string

	LLM    Asker
	Sender Sender

	// Seen drops redelivered messages. Defaults to a 1000/200 set.
	Seen *seen.Set

	// Recorder and Metrics are optional.
	Recorder Recorder
	Metrics  *metrics.Metrics

	Logger *slog.Logger
}

// Handler dispatches chat messages to commands.
type Handler struct {
	prefix   string
	llm      Asker
	sender   Sender
	seen     *seen.Set
	recorder Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a Handler.
func New(cfg Config) (*Handler, error) {
	if cfg.LLM == nil {
		return nil, errors.New("bot: LLM is required")
	}
	if cfg.Sender == nil {
		return nil, errors.New("bot: sender is required")
	}

	h := &Handler{
		prefix:   strings.TrimSpace(cfg.Prefix),
		llm:      cfg.LLM,
		sender:   cfg.Sender,
		seen:     cfg.Seen,
		recorder: cfg.Recorder,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
	if h.prefix == "" {
		h.prefix = DefaultPrefix
	}
	if h.seen == nil {
		h.seen = seen.New(0, 0)
	}
	if h.logger == nil {
		h.logger = logger.Nop()
	}
	return h, nil
}

// Prefix returns the configured command prefix.
func (h *Handler) Prefix() string { return h.prefix }

// Handle processes one message. Messages without the prefix, unknown
// commands and already seen ids are ignored. The returned error is only
// ever a delivery failure from the Sender.
func (h *Handler) Handle(ctx context.Context, msg Message) error {
	if msg.ID != "" && !h.seen.Mark(msg.ID) {
		h.metrics.ObserveBot(metrics.OutcomeDuplicate)
		h.logger.Debug("duplicate message ignored", "id", msg.ID)
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	rest, ok := strings.CutPrefix(text, h.prefix)
	if !ok {
		h.metrics.ObserveBot(metrics.OutcomeIgnored)
		return nil
	}

	cmd, arg := splitCommand(rest)

	log := h.logger.With("chat_id", msg.ChatID, "sender", msg.Sender, "command", cmd)

	switch cmd {
	case "ping":
		log.Info("command received")
		return h.reply(ctx, msg.ChatID, metrics.OutcomeAnswered, PongReply)

	case "ayuda", "help":
		log.Info("command received")
		return h.reply(ctx, msg.ChatID, metrics.OutcomeAnswered, h.helpText())

	case "ask", "db":
		if arg == "" {
			return h.reply(ctx, msg.ChatID, metrics.OutcomeIgnored,
				fmt.Sprintf("Por favor, especifica tu consulta después de `%s%s`.", h.prefix, cmd))
		}
		log.Info("query received", "query", utils.Truncate(arg, 60))
		return h.ask(ctx, msg, arg, log)

	default:
		h.metrics.ObserveBot(metrics.OutcomeIgnored)
		log.Debug("unknown command ignored")
		return nil
	}
}

func (h *Handler) ask(ctx context.Context, msg Message, query string, log *slog.Logger) error {
	raw, err := h.llm.Send(ctx, query)
	if err != nil {
		log.Error("LLM request failed", "error", err)
		return h.reply(ctx, msg.ChatID, metrics.OutcomeFailed, ErrorReply)
	}

	lines := render.Render(raw)
	h.metrics.ObserveRender(len(lines))

	if len(lines) == 0 {
		log.Warn("LLM answer rendered to nothing")
		return h.reply(ctx, msg.ChatID, metrics.OutcomeAnswered, NoAnswerText)
	}

	if h.recorder != nil {
		h.recorder.Enqueue(worker.Job{
			ChatID: msg.ChatID,
			Sender: msg.Sender,
			Prompt: query,
			Lines:  lines,
		})
	}

	log.Info("answer rendered", "lines", len(lines))
	return h.reply(ctx, msg.ChatID, metrics.OutcomeAnswered, lines...)
}

// reply sends texts in order, stopping at the first delivery failure.
func (h *Handler) reply(ctx context.Context, chatID, outcome string, texts ...string) error {
	h.metrics.ObserveBot(outcome)
	for _, text := range texts {
		if err := h.sender.Send(ctx, chatID, text); err != nil {
			return fmt.Errorf("sending reply to %s: %w", chatID, err)
		}
	}
	return nil
}

func (h *Handler) helpText() string {
	p := h.prefix
	return "🤖 *Comandos disponibles* 🤖\n\n" +
		"*" + p + "ping* - Comprueba si el bot está activo\n" +
		"*" + p + "ayuda* - Muestra este mensaje de ayuda\n" +
		"*" + p + "ask <consulta>* - Envía una consulta al asistente (alias *" + p + "db*)"
}

// splitCommand splits "Ask  what now" into ("ask", "what now").
func splitCommand(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return strings.ToLower(s), ""
	}
	return strings.ToLower(s[:i]), strings.TrimSpace(s[i:])
}
