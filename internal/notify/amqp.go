package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes notifications as JSON to a topic exchange. The
// delivery workers consume from there.
type AMQPNotifier struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// NewAMQPNotifier dials url and declares a durable topic exchange.
func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("notify.NewAMQPNotifier: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("notify.NewAMQPNotifier: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("notify.NewAMQPNotifier: declare exchange: %w", err)
	}
	return &AMQPNotifier{conn: conn, ch: ch, exchange: exchange}, nil
}

// newAMQPNotifierWithChannel is used by tests to publish through a fake channel.
func newAMQPNotifierWithChannel(ch channel, exchange string) *AMQPNotifier {
	return &AMQPNotifier{ch: ch, exchange: exchange}
}

func (p *AMQPNotifier) Notify(ctx context.Context, n domain.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify.AMQPNotifier.Notify: marshal: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(n.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.GuestID.String(),
		Body:         b,
	})
	if err != nil {
		return fmt.Errorf("notify.AMQPNotifier.Notify: publish: %w", err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPNotifier) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
