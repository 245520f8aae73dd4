// Package noop provides an alert publisher that discards everything.
// It is the default when no alerting backend is configured.
package noop

import (
	"context"

	"go.uber.org/zap"
)

// Publisher logs alerts at debug level and drops them.
type Publisher struct {
	logger *zap.Logger
}

// New creates a no-op publisher.
func New(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger}
}

// Publish discards the payload and returns a fixed ID.
func (p *Publisher) Publish(_ context.Context, topic string, _ any) (string, error) {
	p.logger.Debug("alert discarded (noop publisher)", zap.String("topic", topic))
	return "noop", nil
}

// Close is a no-op.
func (p *Publisher) Close() error { return nil }
