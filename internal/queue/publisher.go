package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventsQueue is the durable queue every lifecycle event is routed to.
const EventsQueue = "booking.events"

// Publisher sends lifecycle events to RabbitMQ.  The connection is
// dialled lazily and re-dialled after the broker drops it; a fresh
// channel is opened per publish so one failed publish never poisons
// the next.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewPublisher returns a Publisher for the broker at url.  No network
// I/O happens until the first Publish.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// Publish marshals ev and sends it to the booking.events queue as a
// persistent message.  Errors are logged and returned so callers can
// choose to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	conn, err := p.connection()
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(EventsQueue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Type:         string(ev.Type),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", EventsQueue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish %s failed: %v", ev.Type, err)
		return err
	}
	return nil
}

// Close shuts the underlying connection, if any.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

func (p *Publisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", redactURL(p.url), err)
	}
	p.conn = conn
	return conn, nil
}

// NopPublisher discards every event.  It stands in for Publisher when
// the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// redactURL hides the password of an AMQP URL for logging.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "amqp://<invalid>"
	}
	return u.Redacted()
}
