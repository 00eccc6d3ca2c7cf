package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/rabbitmq/amqp091-go"
)

// Client forwards expense events to a RabbitMQ exchange and consumes them
// back from the bound queue.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *slog.Logger
}

func NewClient(url, exchangeName, queueName string, logger *slog.Logger) (*Client, error) {
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
		logger:       logger,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := c.channel.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// every expense.* routing key lands in the audit queue
	if err := c.channel.QueueBind(c.queueName, "expense.*", c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// Register subscribes the client to every expense event type on bus.
func (c *Client) Register(bus *events.EventBus) {
	for _, eventType := range events.ExpenseEventTypes {
		bus.Subscribe(eventType, c.Forward)
	}
	c.logger.Info("amqp forwarder registered",
		"exchange", c.exchangeName,
		"event_types", events.ExpenseEventTypes)
}

// Forward publishes one event using its type as routing key.
func (c *Client) Forward(ctx context.Context, event events.Event) error {
	msg, err := MessageFromEvent(event)
	if err != nil {
		return err
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.exchangeName, msg.Type, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.EventID,
			Timestamp:    msg.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.logger.Debug("forwarded expense event",
		"event_id", msg.EventID,
		"event_type", msg.Type,
		"expense_id", msg.ExpenseID)
	return nil
}

// Consume delivers queued messages to handler until ctx is done. Malformed
// messages are dropped, handler failures are requeued.
func (c *Client) Consume(ctx context.Context, handler func(context.Context, Message) error) error {
	deliveries, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.Info("consuming expense events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}

			msg, err := MessageFromJSON(delivery.Body)
			if err != nil {
				c.logger.Error("dropping malformed message", "error", err)
				_ = delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, msg); err != nil {
				c.logger.Error("message handler failed", "error", err, "event_id", msg.EventID)
				_ = delivery.Nack(false, true)
				continue
			}

			_ = delivery.Ack(false)
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
