package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

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
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent, // survive broker restarts
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// PublishBatchIngested publishes a batch ingestion notification
func (c *Client) PublishBatchIngested(ctx context.Context, batchID string, txCount int) error {
	msg := NewBatchIngestedMessage(batchID, txCount)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published batch ingested message",
		"batch_id", batchID,
		"tx_count", txCount,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// PublishReportExport publishes a monthly report export request
func (c *Client) PublishReportExport(ctx context.Context, year, month int) error {
	msg := NewReportExportMessage(year, month)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published report export message",
		"year", year,
		"month", month,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ConsumeMessages consumes the shared queue, dispatching on message type.
// Either handler may be nil; messages of that type are dropped with a warning.
func (c *Client) ConsumeMessages(ctx context.Context, batchHandler func(*BatchIngestedMessage) error, exportHandler func(*ReportExportMessage) error) error {
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

	slog.InfoContext(ctx, "Started consuming messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := c.dispatch(ctx, delivery.Body, batchHandler, exportHandler); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message", "error", err)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false) // acknowledge successful processing
		}
	}
}

func (c *Client) dispatch(ctx context.Context, body []byte, batchHandler func(*BatchIngestedMessage) error, exportHandler func(*ReportExportMessage) error) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Drop malformed messages instead of requeueing them forever.
		slog.ErrorContext(ctx, "Failed to unmarshal message envelope", "error", err)
		return nil
	}

	switch env.Type {
	case TypeBatchIngested:
		msg, err := BatchIngestedMessageFromJSON(body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal batch message", "error", err)
			return nil
		}
		if batchHandler == nil {
			slog.WarnContext(ctx, "No batch handler configured, dropping message", "batch_id", msg.BatchID)
			return nil
		}
		slog.InfoContext(ctx, "Processing batch ingested message",
			"batch_id", msg.BatchID,
			"tx_count", msg.TxCount)
		return batchHandler(msg)

	case TypeReportExport:
		msg, err := ReportExportMessageFromJSON(body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal export message", "error", err)
			return nil
		}
		if exportHandler == nil {
			slog.WarnContext(ctx, "No export handler configured, dropping message", "year", msg.Year, "month", msg.Month)
			return nil
		}
		slog.InfoContext(ctx, "Processing report export message",
			"year", msg.Year,
			"month", msg.Month)
		return exportHandler(msg)
	}

	slog.WarnContext(ctx, "Unknown message type, dropping", "type", env.Type)
	return nil
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
