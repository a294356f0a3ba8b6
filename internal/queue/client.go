package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"skiipper/internal/logger"
)

const publishTimeout = 5 * time.Second

// WeeklyReportHandler processes one decoded report message
type WeeklyReportHandler func(ctx context.Context, msg *WeeklyReportMessage) error

// Client publishes to and consumes from the weekly report queue on a durable
// direct exchange. The routing key is the queue name.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// NewClient dials url and declares the exchange, queue and binding
func NewClient(url, exchangeName, queueName string) (*Client, error) {
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
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
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

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishWeeklyReport enqueues a report. Delivery is not awaited.
func (c *Client) PublishWeeklyReport(ctx context.Context, email string, skips int, savings decimal.Decimal) error {
	body, err := NewWeeklyReportMessage(email, skips, savings).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	logger.Info("Published weekly report message", "email", email, "exchange", c.exchangeName, "queue", c.queueName)
	return nil
}

// ConsumeWeeklyReports blocks delivering messages to handler until ctx is done
// or the channel closes.
func (c *Client) ConsumeWeeklyReports(ctx context.Context, handler WeeklyReportHandler) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	logger.Info("Started consuming weekly report messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			handleDelivery(ctx, delivery, handler)
		}
	}
}

// acknowledger is the part of amqp091.Delivery used to settle a message
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type deliveryAck struct {
	d amqp091.Delivery
}

func (a deliveryAck) Ack(multiple bool) error           { return a.d.Ack(multiple) }
func (a deliveryAck) Nack(multiple, requeue bool) error { return a.d.Nack(multiple, requeue) }

func handleDelivery(ctx context.Context, delivery amqp091.Delivery, handler WeeklyReportHandler) {
	process(ctx, delivery.Body, deliveryAck{d: delivery}, handler)
}

// process settles one message. Failed messages are dropped, never requeued.
func process(ctx context.Context, body []byte, ack acknowledger, handler WeeklyReportHandler) {
	msg, err := WeeklyReportMessageFromJSON(body)
	if err != nil {
		logger.Error("Failed to unmarshal message", "error", err)
		_ = ack.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		logger.Error("Failed to handle weekly report", "error", err, "email", msg.Email)
		_ = ack.Nack(false, false)
		return
	}

	_ = ack.Ack(false)
	logger.Info("Delivered weekly report", "email", msg.Email)
}

// Close closes the channel and connection
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
