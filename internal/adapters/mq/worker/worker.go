// Package worker drains draw events and fans them out to publishers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/logger"
	"github.com/okian/raffle/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Event abstracts what workers read off the queue.
type Event = model.DrawEvent

// Publisher delivers a draw event to one kind of listener.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, e Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Notifier reads events off a queue and hands each to every publisher.
type Notifier struct {
	queue      Queue
	publishers []Publisher
	name       string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewNotifier creates a notifier worker.
func NewNotifier(q Queue, publishers []Publisher, opts ...Option) *Notifier {
	w := &Notifier{
		queue:      q,
		publishers: publishers,
		name:       "notifier",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes events until the queue closes, ctx ends, or Shutdown is called.
func (w *Notifier) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Error(ctx, "error publishing draw", logger.String("drawId", e.DrawID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for it to exit.
func (w *Notifier) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process delivers e to every publisher. One failing publisher does not
// keep the others from receiving the event.
func (w *Notifier) process(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: Event arrives by value from the channel
	var errs []error
	for _, p := range w.publishers {
		if err := p.Publish(ctx, e); err != nil {
			metrics.RecordPublishError(p.Name())
			metrics.RecordErrorByComponent("worker", "publish_error")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	metrics.RecordEventPublished()
	return nil
}

// Pool manages multiple notifier workers sharing one queue.
type Pool struct {
	workers []*Notifier
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount notifiers. Values below one mean one.
// Events are only delivered in draw order with a single worker.
func NewPool(workerCount int, q Queue, publishers []Publisher, l logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if l == nil {
		l = logger.NewNop()
	}
	p := &Pool{
		workers: make([]*Notifier, workerCount),
		queue:   q,
		logger:  l.Named("notifier-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewNotifier(q, publishers,
			WithName("notifier-"+strconv.Itoa(i)),
			WithLogger(l),
		)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, then waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}
	return nil
}

// LogPublisher writes every draw to the log as an audit trail.
type LogPublisher struct {
	logger logger.Logger
}

// NewLogPublisher returns a publisher that logs to l.
func NewLogPublisher(l logger.Logger) *LogPublisher {
	if l == nil {
		l = logger.NewNop()
	}
	return &LogPublisher{logger: l.Named("audit")}
}

// Name implements Publisher.
func (*LogPublisher) Name() string { return "log" }

// Publish implements Publisher.
func (p *LogPublisher) Publish(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: matches Publisher
	ids := make([]string, len(e.Winners))
	for i, w := range e.Winners {
		ids[i] = w.GuideID
	}
	p.logger.Info(ctx, "winners announced",
		logger.String("drawId", e.DrawID),
		logger.Strings("guides", ids),
		logger.Int("pool", e.PoolSize),
		logger.String("drawnAt", e.DrawnAt.Format(time.RFC3339)),
	)
	return nil
}
