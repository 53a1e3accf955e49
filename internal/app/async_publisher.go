package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"taskbox/internal/model"
)

var (
	ErrEventBufferFull = errors.New("event buffer full")
	ErrPublisherClosed = errors.New("event publisher closed")
)

const (
	defaultEventBuffer         = 1024
	defaultEventPublishTimeout = 5 * time.Second
)

// AsyncEventPublisher queues events in a bounded buffer and hands them to next
// from a single goroutine, so a slow or flow-controlled broker never holds up
// a request. When the buffer is full the event is dropped with
// ErrEventBufferFull.
type AsyncEventPublisher struct {
	next    EventPublisher
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	events chan model.ItemEvent
	done   chan struct{}
}

func NewAsyncEventPublisher(next EventPublisher, buffer int, timeout time.Duration, logger *slog.Logger) *AsyncEventPublisher {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	if timeout <= 0 {
		timeout = defaultEventPublishTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &AsyncEventPublisher{
		next:    next,
		timeout: timeout,
		logger:  logger,
		events:  make(chan model.ItemEvent, buffer),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish enqueues event without waiting. The request context is not carried
// over: delivery outlives the request.
func (p *AsyncEventPublisher) Publish(_ context.Context, event model.ItemEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.events <- event:
		return nil
	default:
		return ErrEventBufferFull
	}
}

// Close stops accepting events and waits until the queued ones are handed
// over or ctx ends.
func (p *AsyncEventPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AsyncEventPublisher) run() {
	defer close(p.done)
	for event := range p.events {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.next.Publish(ctx, event); err != nil {
			p.logger.Warn("publish item event failed",
				"type", event.Type, "item_id", event.ItemID, "error", err)
		}
		cancel()
	}
}
