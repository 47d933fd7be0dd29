package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mileage-service/common/logger"
	"mileage-service/common/rabbitmq"
	"mileage-service/internal/auditstore"

	"github.com/Azure/go-amqp"
)

// maxReceiveFailures bounds how long a dead link is retried before the
// consumer gives up and lets the caller reconnect.
const maxReceiveFailures = 10

// EventMessage mirrors the payload published by the API binary
type EventMessage struct {
	EventName string `json:"event_name"`
	ActorID   string `json:"actor_id"`
	Metadata  string `json:"metadata"`
	Status    string `json:"status"`
}

type AMQPConsumer struct {
	conn    *amqp.Conn
	session *amqp.Session
}

func NewAMQPConsumer(conn *amqp.Conn) (*AMQPConsumer, error) {
	session, err := conn.NewSession(context.Background(), nil)
	if err != nil {
		return nil, err
	}
	return &AMQPConsumer{conn: conn, session: session}, nil
}

// Close closes the AMQP consumer
func (c *AMQPConsumer) Close(ctx context.Context) error {
	if c.session != nil {
		return c.session.Close(ctx)
	}
	return nil
}

// auditReceiver is the slice of *amqp.Receiver the consume loop needs
type auditReceiver interface {
	Receive(ctx context.Context, opts *amqp.ReceiveOptions) (*amqp.Message, error)
	AcceptMessage(ctx context.Context, msg *amqp.Message) error
	RejectMessage(ctx context.Context, msg *amqp.Message, e *amqp.Error) error
}

// ConsumeFromRabbitMQ drains the audit queue into MongoDB
func (app *Config) ConsumeFromRabbitMQ(conn *amqp.Conn) error {
	logger.Info("Setting up RabbitMQ consumer")

	consumer, err := NewAMQPConsumer(conn)
	if err != nil {
		return err
	}

	receiver, err := consumer.session.NewReceiver(context.Background(), rabbitmq.AuditQueueAddress, &amqp.ReceiverOptions{
		Credit: 10, // Prefetch count
	})
	if err != nil {
		logger.Error("Failed to create RabbitMQ receiver", "error", err)
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		receiver.Close(ctx)
	}()

	logger.Info("RabbitMQ consumer ready", "address", rabbitmq.AuditQueueAddress)

	return app.consumeLoop(context.Background(), receiver, 2*time.Second)
}

// consumeLoop receives until the context ends or the link stays dead. A dead
// link fails every Receive immediately, so the error branch backs off with a
// growing delay instead of spinning.
func (app *Config) consumeLoop(ctx context.Context, receiver auditReceiver, retryDelay time.Duration) error {
	failures := 0

	for {
		msg, err := receiver.Receive(ctx, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			failures++
			if failures >= maxReceiveFailures {
				return fmt.Errorf("giving up after %d consecutive receive failures: %w", failures, err)
			}

			logger.Error("Failed to receive message",
				"error", err,
				"consecutive_failures", failures)
			time.Sleep(time.Duration(failures) * retryDelay)
			continue
		}
		failures = 0

		var event EventMessage
		if err := json.Unmarshal(msg.GetData(), &event); err != nil {
			logger.Error("Failed to unmarshal audit event", "error", err)
			if err := receiver.RejectMessage(ctx, msg, nil); err != nil {
				logger.Error("Failed to reject message", "error", err)
			}
			continue
		}

		logger.Info("Received audit event from RabbitMQ",
			"event_name", event.EventName,
			"actor_id", event.ActorID,
			"status", event.Status)

		err = app.Store.Insert(ctx, auditstore.Entry{
			EventName: event.EventName,
			ActorID:   event.ActorID,
			Metadata:  event.Metadata,
			Status:    event.Status,
		})
		if err != nil {
			logger.Error("Failed to insert audit entry", "error", err)
			if err := receiver.RejectMessage(ctx, msg, nil); err != nil {
				logger.Error("Failed to reject message", "error", err)
			}
		} else {
			if err := receiver.AcceptMessage(ctx, msg); err != nil {
				logger.Error("Failed to accept message", "error", err)
			}
		}
	}
}
