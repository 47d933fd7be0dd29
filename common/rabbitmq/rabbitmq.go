// Package rabbitmq dials the broker and provisions the audit queue. AMQP 1.0
// has no declare operation, so the queue is created through the management
// HTTP API instead.
package rabbitmq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mileage-service/common/env"
	"mileage-service/common/logger"

	"github.com/Azure/go-amqp"
	"go.uber.org/zap"
)

const (
	// AuditQueue carries audit events from the API to the audit consumer
	AuditQueue = "audit"

	// AuditQueueAddress is the AMQP 1.0 address RabbitMQ maps the queue to
	AuditQueueAddress = "/queues/" + AuditQueue
)

// Options describes how to reach the broker and its management API.
type Options struct {
	URL           string
	Username      string
	Password      string
	VHost         string
	ManagementURL string
	MaxRetries    int
}

// OptionsFromEnv builds Options from RABBITMQ_* variables with container
// defaults. RABBITMQ_URL, when set, overrides the assembled broker address.
func OptionsFromEnv() Options {
	opts := Options{
		Username:      env.Get("RABBITMQ_USER", "guest"),
		Password:      env.Get("RABBITMQ_PASSWORD", "guest"),
		VHost:         env.Get("RABBITMQ_VHOST", "/"),
		ManagementURL: env.Get("RABBITMQ_MANAGEMENT_URL", "http://rabbitmq:15672"),
		MaxRetries:    5,
	}

	opts.URL = env.Get("RABBITMQ_URL", "")
	if opts.URL == "" {
		opts.URL = brokerURL(
			env.Get("RABBITMQ_HOST", "rabbitmq"),
			env.Get("RABBITMQ_PORT", "5672"),
			opts.Username,
			opts.Password,
			opts.VHost,
		)
	}

	return opts
}

// brokerURL keeps "/" as the root vhost without double-prefixing named ones
func brokerURL(host, port, user, password, vhost string) string {
	trimmed := strings.TrimPrefix(vhost, "/")
	return fmt.Sprintf("amqp://%s:%s@%s:%s/%s", user, password, host, port, trimmed)
}

// Dial connects with quadratic backoff, then declares the audit queue on a
// best-effort basis.
func Dial(ctx context.Context, opts Options) (*amqp.Conn, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}

	var conn *amqp.Conn
	var lastErr error

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		c, err := amqp.Dial(dialCtx, opts.URL, &amqp.ConnOptions{
			IdleTimeout: 30 * time.Second,
		})
		cancel()

		if err == nil {
			conn = c
			break
		}

		lastErr = err
		logger.Info("RabbitMQ not yet ready...",
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < opts.MaxRetries {
			time.Sleep(time.Duration(attempt*attempt) * time.Second)
		}
	}

	if conn == nil {
		return nil, lastErr
	}
	logger.Info("Connected to RabbitMQ")

	if opts.ManagementURL != "" {
		if err := DeclareAuditQueue(ctx, opts); err != nil {
			logger.Warn("Could not declare audit queue, it may need to be created manually",
				zap.Error(err))
		}
	}

	return conn, nil
}

// DeclareAuditQueue idempotently creates the durable audit queue through the
// management HTTP API.
func DeclareAuditQueue(ctx context.Context, opts Options) error {
	vhost := opts.VHost
	if vhost == "" {
		vhost = "/"
	}

	apiURL := fmt.Sprintf("%s/api/queues/%s/%s",
		opts.ManagementURL,
		url.PathEscape(vhost),
		url.PathEscape(AuditQueue),
	)

	body, err := json.Marshal(map[string]any{
		"durable":     true,
		"auto_delete": false,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(opts.Username, opts.Password)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("management API call failed: %w", err)
	}
	defer resp.Body.Close()

	// 201 created, 204 already present
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("declare queue %s: HTTP %d", AuditQueue, resp.StatusCode)
	}

	return nil
}
