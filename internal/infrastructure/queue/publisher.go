// Package queue holds the RabbitMQ transport used by the outbox relay
// worker to hand events to downstream consumers.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"melodia/internal/infrastructure/storage/postgres"
)

// Queue names per event type. Unknown event types fall back to the default.
const (
	QueuePasswordReset = "notifications.password_reset"
	QueueDefault       = "events.default"
)

// Publisher delivers outbox messages to RabbitMQ with persistent delivery.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher dials the broker and opens a channel.
func NewPublisher(url string) (*Publisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &Publisher{conn: conn, channel: ch}, nil
}

// Handle publishes one outbox message to its queue. Satisfies the outbox
// relay handler contract.
func (p *Publisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	queue := queueFor(msg.EventType)

	if _, err := p.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	err := p.channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID.String(),
		Type:         msg.EventType,
		Body:         msg.Payload,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}

	return nil
}

// Close closes the underlying channel and connection.
func (p *Publisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func queueFor(eventType string) string {
	switch eventType {
	case postgres.EventPasswordReset:
		return QueuePasswordReset
	default:
		return QueueDefault
	}
}

// Ensure interface compliance
var _ postgres.OutboxHandler = (*Publisher)(nil)
