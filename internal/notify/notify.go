// Package notify publishes a run completion event to RabbitMQ.
//
// Notification is best effort: the run has already finished when an event
// is sent, so Send logs failures instead of returning them.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// EventRunCompleted is the Type of the event sent after a successful run.
const EventRunCompleted = "run_completed"

const contentTypeJSON = "application/json"

// Config addresses the broker. With an empty Exchange the event goes to the
// default exchange and RoutingKey names a durable queue, declared on demand.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	Timeout    time.Duration
}

// Enabled reports whether an event should be sent at all.
func (c Config) Enabled() bool { return c.URL != "" }

// Event is the message body.
type Event struct {
	Type       string    `json:"type"`
	Job        string    `json:"job"`
	RunID      string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
	Summary    any       `json:"summary"`
}

// channel is the subset of *amqp.Channel used here.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// dial opens a connection and channel; the returned func closes both.
// Replaced in tests.
var dial = func(url string) (channel, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, func() {
		_ = ch.Close()
		_ = conn.Close()
	}, nil
}

// Publish sends ev and returns any error.
func Publish(ctx context.Context, cfg Config, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	ch, closeFn, err := dial(cfg.URL)
	if err != nil {
		return fmt.Errorf("notify: dial: %w", err)
	}
	defer closeFn()

	if cfg.Exchange == "" {
		if _, err := ch.QueueDeclare(cfg.RoutingKey, true, false, false, false, nil); err != nil {
			return fmt.Errorf("notify: declare queue %s: %w", cfg.RoutingKey, err)
		}
	}

	err = ch.PublishWithContext(ctx,
		cfg.Exchange,
		cfg.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  contentTypeJSON,
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.FinishedAt,
			MessageId:    ev.RunID,
			Type:         ev.Type,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("notify: publish to exchange %q key %q: %w", cfg.Exchange, cfg.RoutingKey, err)
	}
	return nil
}

// Send publishes ev when cfg is enabled and logs the outcome.
func Send(ctx context.Context, cfg Config, ev Event) {
	if !cfg.Enabled() {
		return
	}
	entry := log.WithFields(log.Fields{"job": ev.Job, "run_id": ev.RunID, "exchange": cfg.Exchange, "routing_key": cfg.RoutingKey})
	if err := Publish(ctx, cfg, ev); err != nil {
		entry.WithError(err).Warn("notify: run event not delivered")
		return
	}
	entry.Info("notify: run event published")
}
