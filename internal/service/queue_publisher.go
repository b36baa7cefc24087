// Package queue_publisher publishes console events to RabbitMQ.  Errors are
// logged and returned so callers can ignore failures without interrupting
// the main request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/transit-admin-console/internal/queue"
)

// Publisher sends EntityChangedEvent messages to the fanout exchange,
// dialing once per publish.
type Publisher struct {
	url     string
	enabled bool
}

// New returns a publisher for url.  A disabled publisher accepts and drops
// every event.
func New(url string, enabled bool) *Publisher {
	return &Publisher{url: url, enabled: enabled}
}

// defaultDialTimeout bounds connect and handshake when ctx has no deadline.
const defaultDialTimeout = 3 * time.Second

// dialTimeout is what is left of ctx's deadline.
func dialTimeout(ctx context.Context) time.Duration {
	dl, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout
	}
	if d := time.Until(dl); d > 0 {
		return d
	}
	return time.Millisecond
}

// PublishEntityChanged publishes event as persistent JSON.
func (p *Publisher) PublishEntityChanged(ctx context.Context, event q.EntityChangedEvent) error {
	if p == nil || !p.enabled {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout(ctx)),
	})
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so the exchange survives broker restarts.
	if err := ch.ExchangeDeclare(
		q.ExchangeEntityChanged, // name
		amqp.ExchangeFanout,     // kind
		true,                    // durable
		false,                   // autoDelete
		false,                   // internal
		false,                   // noWait
		nil,                     // args
	); err != nil {
		log.Printf("rabbitmq: exchange declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		q.ExchangeEntityChanged, // exchange
		"",                      // fanout ignores the routing key
		false,                   // mandatory
		false,                   // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
