// Package events publishes application updates to an AMQP exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"

	"github.com/streadway/amqp"
)

// Event types
const (
	TypeApplicationCreated = "application.created"
	TypeTestCompleted      = "test.completed"
	TypeStatusChanged      = "application.status_changed"
)

// ApplicationEvent describes a change to one job application
type ApplicationEvent struct {
	Type          string    `json:"type"`
	ApplicationID string    `json:"applicationId"`
	UserID        string    `json:"userId"`
	Status        string    `json:"status,omitempty"`
	TestType      string    `json:"testType,omitempty"`
	Score         *int      `json:"score,omitempty"`
	MaxScore      int       `json:"maxScore,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// RoutingKey returns the topic the event is published under
func (e ApplicationEvent) RoutingKey() string {
	return "application." + e.ApplicationID
}

// Publisher delivers application events
type Publisher interface {
	Publish(ctx context.Context, event ApplicationEvent) error
	Close() error
}

// NoopPublisher discards every event. Used when events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ApplicationEvent) error { return nil }
func (NoopPublisher) Close() error                                    { return nil }

// channel is the subset of *amqp.Channel the publisher needs
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON events to a topic exchange
type AMQPPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       channel
	exchange string
	timeout  time.Duration
	logger   *errors.Logger
}

// NewPublisher returns an AMQP publisher when events are enabled and a
// NoopPublisher otherwise.
func NewPublisher(cfg config.EventsConfig, logger *errors.Logger) (Publisher, error) {
	if !cfg.Enabled {
		return NoopPublisher{}, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "failed to connect to message broker", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "failed to open broker channel", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, cfg.ExchangeType, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("failed to declare exchange %q", cfg.Exchange), err)
	}

	logger.Info("Connected to message broker", "exchange", cfg.Exchange, "type", cfg.ExchangeType)

	p := newAMQPPublisher(ch, cfg.Exchange, cfg.Timeout, logger)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch channel, exchange string, timeout time.Duration, logger *errors.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		ch:       ch,
		exchange: exchange,
		timeout:  timeout,
		logger:   logger,
	}
}

// Publish sends the event as a persistent JSON message
func (p *AMQPPublisher) Publish(ctx context.Context, event ApplicationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	}

	done := make(chan error, 1)
	go func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		done <- p.ch.Publish(p.exchange, event.RoutingKey(), false, false, msg)
	}()

	timeout := p.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "failed to publish event", err).
				WithContext("routing_key", event.RoutingKey())
		}
		p.logger.Debug("Published event", "type", event.Type, "routing_key", event.RoutingKey())
		return nil
	case <-timer.C:
		return errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "timed out publishing event", nil).
			WithContext("routing_key", event.RoutingKey())
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the channel and the connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
