package amqp

import (
	"context"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Client wraps an AMQP connection bound to the sync pipeline's exchange.
// The API consumes sync-completed notifications from a durable queue; the
// pipeline publishes them after pushing fresh provider data.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	routingKey   string
	logger       zerolog.Logger
}

// NewClient dials the broker and declares the exchange, queue, and binding
func NewClient(url, exchangeName, queueName, routingKey string, logger zerolog.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		routingKey:   routingKey,
		logger:       logger.With().Str("component", "amqp").Logger(),
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	// Declare exchange
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Bind queue to exchange
	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.routingKey,   // routing key
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// ConsumeSyncCompleted consumes sync-completed messages until the context is
// cancelled. Deliveries are acked manually: malformed payloads are rejected
// without requeue, handler errors requeue the delivery.
func (c *Client) ConsumeSyncCompleted(ctx context.Context, handler func(*SyncCompletedMessage) error) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.Info().Str("queue", c.queueName).Msg("Started consuming sync-completed messages")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().AnErr("reason", ctx.Err()).Msg("Stopping message consumption")
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := SyncCompletedMessageFromJSON(delivery.Body)
			if err != nil {
				c.logger.Error().Err(err).Msg("Failed to unmarshal sync message")
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(msg); err != nil {
				c.logger.Error().
					Err(err).
					Str("run_id", msg.RunID).
					Msg("Failed to handle sync message")
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false) // acknowledge successful processing
			c.logger.Debug().
				Str("run_id", msg.RunID).
				Ints("years", msg.Years).
				Msg("Processed sync-completed message")
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
