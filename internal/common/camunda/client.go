// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"sector-insights/internal/common/logger"
)

// Client wraps the Zeebe gRPC client with connect retry and a health probe.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RetryConfig            *RetryConfig
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// dialFunc is replaced in tests.
var dialFunc = func(cfg *zbc.ClientConfig) (zbc.Client, error) {
	return zbc.NewClient(cfg)
}

// Connect dials the gateway, retrying transient failures with exponential
// backoff until the retry budget or ctx runs out.
func Connect(ctx context.Context, config *ClientConfig, log logger.Logger) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}
	if config.ConnectionTimeout == 0 {
		config.ConnectionTimeout = 10 * time.Second
	}

	var zeebeClient zbc.Client
	err := retryWithBackoff(ctx, config.RetryConfig, log, "Zeebe client initialization", func() error {
		var err error
		zeebeClient, err = dialFunc(&zbc.ClientConfig{
			GatewayAddress:         config.GatewayAddress,
			UsePlaintextConnection: config.UsePlaintextConnection,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Client{client: zeebeClient, config: config}, nil
}

// Zeebe returns the raw client for worker registration.
func (c *Client) Zeebe() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck asks the broker for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

func retryWithBackoff(ctx context.Context, rc *RetryConfig, log logger.Logger, operationName string, operation func() error) error {
	var err error
	delay := rc.BaseDelay

	for attempt := 1; attempt <= rc.MaxRetries; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}
		if !isRetryableZeebeError(err) || attempt == rc.MaxRetries {
			break
		}

		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt,
			"maxRetries":  rc.MaxRetries,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", operationName, attempt, ctx.Err())
		}

		delay *= 2
		if delay > rc.MaxDelay {
			delay = rc.MaxDelay
		}
	}

	return fmt.Errorf("%s failed: %w", operationName, err)
}

// isRetryableZeebeError checks if the error is transient and should be retried.
func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
