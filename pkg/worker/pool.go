// Package worker provides an asynchronous worker pool that persists rendered
// chat turns using the provided storage.Driver and announces them on the
// configured eventstream.Publisher.
//
// The pool decouples storage from the chat reply path so that a slow database
// or broker never delays an answer.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/relay/pkg/eventstream"
	"github.com/papercomputeco/relay/pkg/eventstream/nop"
	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/merkle"
	"github.com/papercomputeco/relay/pkg/metrics"
	"github.com/papercomputeco/relay/pkg/storage"
	"github.com/papercomputeco/relay/pkg/utils"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is one answered query to persist.
type Job struct {
	ChatID string
	Sender string
	Prompt string
	Lines  []string
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting nodes.
	Driver storage.Driver

	// Publisher receives an event per newly stored turn. Defaults to nop.
	Publisher eventstream.Publisher

	// Metrics is optional.
	Metrics *metrics.Metrics

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool processes storage jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	// chats serializes jobs of the same chat so each turn chains onto the
	// previous head.
	chats sync.Map // chat id -> *sync.Mutex
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("worker pool requires a storage driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Publisher == nil {
		c.Publisher = nop.NewPublisher()
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "chat_id", job.ChatID, "lines", len(job.Lines))
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped", "chat_id", job.ChatID)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the inbound transports have stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	node, isNew, err := p.storeTurn(ctx, job)
	if err != nil {
		p.logger.Error("turn storage failed", "chat_id", job.ChatID, "error", err)
		return
	}

	if !isNew {
		p.logger.Debug("turn already stored", "hash", node.Hash)
		return
	}

	p.config.Metrics.ObserveTurn()
	p.logger.Info("turn stored",
		"chat_id", job.ChatID,
		"hash", node.Hash,
		"prompt", utils.Truncate(job.Prompt, 60),
	)

	if err := p.config.Publisher.PublishTurn(ctx, eventstream.NewTurnRenderedEvent(node)); err != nil {
		p.logger.Warn("turn event not published", "hash", node.Hash, "error", err)
	}
}

// storeTurn chains the job onto the chat's current head and stores it.
func (p *Pool) storeTurn(ctx context.Context, job Job) (*merkle.Node, bool, error) {
	mu, _ := p.chats.LoadOrStore(job.ChatID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	parent, err := p.config.Driver.Head(ctx, job.ChatID)
	if err != nil && !storage.IsNotFound(err) {
		return nil, false, fmt.Errorf("loading chat head: %w", err)
	}

	node := merkle.NewNode(merkle.Bucket{
		ChatID: job.ChatID,
		Sender: job.Sender,
		Prompt: job.Prompt,
		Lines:  job.Lines,
	}, parent)

	isNew, err := p.config.Driver.Put(ctx, node)
	if err != nil {
		return nil, false, fmt.Errorf("storing turn: %w", err)
	}

	return node, isNew, nil
}
