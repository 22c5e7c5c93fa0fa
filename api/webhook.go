package api

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/relay/pkg/bot"
)

// MessageHandler runs one chat message through the bot. *bot.Handler
// implements it.
type MessageHandler interface {
	Handle(ctx context.Context, msg bot.Message) error
}

// ErrNoCollector is returned by WebhookSender outside of a webhook request.
var ErrNoCollector = errors.New("no webhook reply collector in context")

type collectorKey struct{}

// collector gathers the replies the bot sends while handling one request.
type collector struct {
	mu      sync.Mutex
	replies []string
}

func (c *collector) add(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, text)
}

func (c *collector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.replies))
	copy(out, c.replies)
	return out
}

func withCollector(ctx context.Context, c *collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, c)
}

// WebhookSender is the bot.Sender for the webhook transport: replies are
// returned in the body of the /v1/messages response that triggered them.
func WebhookSender() bot.Sender {
	return bot.SenderFunc(func(ctx context.Context, _ string, text string) error {
		c, ok := ctx.Value(collectorKey{}).(*collector)
		if !ok {
			return ErrNoCollector
		}
		c.add(text)
		return nil
	})
}
