package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// New dials the broker and confirms a channel can be opened within 3s.
func New(ctx context.Context, url string) (*amqp.Connection, error) {
	type dialResult struct {
		conn *amqp.Connection
		err  error
	}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	done := make(chan dialResult, 1)
	go func() {
		conn, err := amqp.Dial(url)
		if err != nil {
			done <- dialResult{err: fmt.Errorf("dial rabbitmq failed: %w", err)}
			return
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			done <- dialResult{err: fmt.Errorf("open rabbitmq channel failed: %w", err)}
			return
		}
		_ = ch.Close()
		done <- dialResult{conn: conn}
	}()

	select {
	case <-checkCtx.Done():
		go func() {
			if r := <-done; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, fmt.Errorf("rabbitmq health check timeout: %w", checkCtx.Err())
	case r := <-done:
		return r.conn, r.err
	}
}

// DeclareQueue declares the durable, non-exclusive queue used for item events.
func DeclareQueue(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare queue %q failed: %w", name, err)
	}
	return nil
}
