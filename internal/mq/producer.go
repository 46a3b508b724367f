// Package mq publishes plan workflow events to RabbitMQ. Publishing is
// best-effort: callers persist first and treat a failed publish as
// non-fatal.
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange is the topic exchange all plan events go through. Routing keys
// are the notification kinds (plan.submitted, plan.approved, ...).
const Exchange = "planhub.events"

// Publisher is the producer contract services depend on.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
	Close()
}

// EventProducer publishes JSON events to a RabbitMQ topic exchange.
type EventProducer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewEventProducer dials RabbitMQ and opens a channel.
func NewEventProducer(amqpURL string) (*EventProducer, error) {
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: channel}, nil
}

// Publish sends body as JSON to the plan events exchange under routingKey.
func (p *EventProducer) Publish(ctx context.Context, routingKey string, body any) error {
	if err := p.channel.ExchangeDeclare(
		Exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx, Exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
}

// Close releases channel and connection resources.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// NoopPublisher is used when no AMQP URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, routingKey string, body any) error { return nil }
func (NoopPublisher) Close()                                                         {}

func sanitizeURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	parsed, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}
