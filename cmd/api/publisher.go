package main

import (
	"context"
	"encoding/json"
	"time"

	"mileage-service/common/logger"
	"mileage-service/common/rabbitmq"

	"github.com/Azure/go-amqp"
)

type EventMessage struct {
	EventName string `json:"event_name"` // What action was performed
	ActorID   string `json:"actor_id"`   // Who performed it
	Metadata  string `json:"metadata"`   // JSON with context (IP, User-Agent, etc.)
	Status    string `json:"status"`     // success, failure, error
}

// AuditMetadata carries the who/what/where context for one audit event.
// The when is stamped by the audit consumer on insert.
type AuditMetadata struct {
	IP        string                 `json:"ip"`
	UserAgent string                 `json:"user_agent"`
	Username  string                 `json:"username,omitempty"`
	Action    string                 `json:"action,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// PublishAuditEvent publishes a structured audit event to RabbitMQ
func PublishAuditEvent(conn *amqp.Conn, eventName, actorID, status string, metadata AuditMetadata) error {
	return PublishAuditEventWithSession(nil, conn, eventName, actorID, status, metadata)
}

// PublishAuditEventWithSession publishes using a specific session (for connection pooling)
func PublishAuditEventWithSession(session *amqp.Session, conn *amqp.Conn, eventName, actorID, status string, metadata AuditMetadata) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if session == nil {
		var err error
		session, err = conn.NewSession(ctx, nil)
		if err != nil {
			logger.Error("Failed to open RabbitMQ session", "error", err)
			return err
		}
		defer session.Close(ctx)
	}

	sender, err := session.NewSender(ctx, rabbitmq.AuditQueueAddress, nil)
	if err != nil {
		logger.Error("Failed to create sender", "error", err)
		return err
	}
	defer sender.Close(ctx)

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		logger.Error("Failed to marshal metadata", "error", err)
		return err
	}

	event := EventMessage{
		EventName: eventName,
		ActorID:   actorID,
		Metadata:  string(metadataJSON),
		Status:    status,
	}

	body, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err)
		return err
	}

	msg := &amqp.Message{
		Data: [][]byte{body},
		Properties: &amqp.MessageProperties{
			ContentType: to("application/json"),
		},
	}

	if err := sender.Send(ctx, msg, nil); err != nil {
		logger.Error("Failed to publish event", "error", err)
		return err
	}

	logger.Info("Published audit event to RabbitMQ",
		"event_name", eventName,
		"actor_id", actorID,
		"status", status)

	return nil
}

func to(s string) *string {
	return &s
}
