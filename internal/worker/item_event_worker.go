package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"taskbox/internal/model"
	"taskbox/internal/platform/rabbitmq"
)

var ErrMalformedEvent = errors.New("malformed item event")

type ItemEventSink interface {
	Create(ctx context.Context, event *model.ItemEvent) error
}

// ItemEventWorker consumes the item event queue and stores each event.
type ItemEventWorker struct {
	conn      *amqp.Connection
	sink      ItemEventSink
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewItemEventWorker(conn *amqp.Connection, sink ItemEventSink, queueName string, logger *slog.Logger) *ItemEventWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemEventWorker{
		conn:      conn,
		sink:      sink,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *ItemEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn("item event deliveries closed")
					return
				}
				if err := w.Handle(workerCtx, d.Body); err != nil {
					w.logger.Error("handle item event failed", "error", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// Handle decodes one message body and stores it.
func (w *ItemEventWorker) Handle(ctx context.Context, body []byte) error {
	var event model.ItemEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.Type == "" || event.ItemID == 0 {
		return fmt.Errorf("%w: missing type or item id", ErrMalformedEvent)
	}
	event.ID = 0

	if err := w.sink.Create(ctx, &event); err != nil {
		return fmt.Errorf("persist item event failed: %w", err)
	}
	w.logger.Debug("item event stored", "type", event.Type, "item_id", event.ItemID)
	return nil
}

// Done is closed when the consume loop has exited.
func (w *ItemEventWorker) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	return done
}

func (w *ItemEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
