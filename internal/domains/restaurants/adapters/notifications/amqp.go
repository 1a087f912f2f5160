package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.NotificationPort = (*AMQPSender)(nil)

// DefaultExchange is the exchange notification emails are published to.
const DefaultExchange = "restaurant.notifications"

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// ChannelOpener opens a fresh channel per publish.
type ChannelOpener func() (Channel, error)

// AMQPSender publishes notifications to a durable direct exchange keyed by notification kind.
type AMQPSender struct {
	open     ChannelOpener
	exchange string
	now      func() time.Time
}

// AMQPOption customizes the sender.
type AMQPOption func(*AMQPSender)

// WithExchange overrides DefaultExchange.
func WithExchange(name string) AMQPOption {
	return func(s *AMQPSender) {
		if name != "" {
			s.exchange = name
		}
	}
}

// NewAMQPSender publishes over channels of conn. Caller owns the connection.
func NewAMQPSender(conn *amqp.Connection, opts ...AMQPOption) *AMQPSender {
	return NewAMQPSenderWithOpener(func() (Channel, error) {
		if conn == nil {
			return nil, errors.New("amqp connection not configured")
		}
		return conn.Channel()
	}, opts...)
}

// NewAMQPSenderWithOpener builds a sender on an arbitrary channel source.
func NewAMQPSenderWithOpener(open ChannelOpener, opts ...AMQPOption) *AMQPSender {
	s := &AMQPSender{open: open, exchange: DefaultExchange, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Send publishes n as a persistent JSON message routed by its kind.
func (s *AMQPSender) Send(ctx context.Context, n ports.Notification) error {
	ch, err := s.open()
	if err != nil {
		return fmt.Errorf("%w: open channel: %w", ports.ErrUnavailable, err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		s.exchange, // name
		"direct",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		return fmt.Errorf("%w: declare exchange: %w", ports.ErrUnavailable, err)
	}

	id := uuid.NewString()
	now := s.now()
	body, err := json.Marshal(toMessage(id, n, now))
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx,
		s.exchange,     // exchange
		string(n.Kind), // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    id,
			Timestamp:    now,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("%w: publish: %w", ports.ErrUnavailable, err)
	}
	return nil
}
