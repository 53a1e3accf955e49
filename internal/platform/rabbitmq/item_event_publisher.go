package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"taskbox/internal/model"
)

// ItemEventPublisher sends item events to a durable queue. The channel is
// opened lazily and reused; amqp channels are not safe for concurrent
// publishing, so Publish is serialized.
type ItemEventPublisher struct {
	conn      *amqp.Connection
	queueName string

	mu sync.Mutex
	ch *amqp.Channel
}

func NewItemEventPublisher(conn *amqp.Connection, queueName string) *ItemEventPublisher {
	return &ItemEventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ItemEventPublisher) Publish(ctx context.Context, event model.ItemEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal item event failed: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		},
	); err != nil {
		_ = ch.Close()
		p.ch = nil
		return fmt.Errorf("publish item event failed: %w", err)
	}
	return nil
}

func (p *ItemEventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}

// channel returns an open channel with the queue declared. Callers hold mu.
func (p *ItemEventPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	if err := DeclareQueue(ch, p.queueName); err != nil {
		_ = ch.Close()
		return nil, err
	}
	p.ch = ch
	return ch, nil
}
