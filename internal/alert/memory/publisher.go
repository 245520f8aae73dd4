// Package memory provides an in-memory alert publisher for tests and
// local development.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Alert is one published payload with its topic.
type Alert struct {
	Topic   string
	Payload any
}

// Publisher records alerts in memory.
type Publisher struct {
	mu     sync.Mutex
	alerts []Alert
	closed bool
}

// New constructs an empty in-memory publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish appends the alert and returns its sequence number as an ID.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", fmt.Errorf("publisher is closed")
	}
	p.alerts = append(p.alerts, Alert{Topic: topic, Payload: payload})
	return fmt.Sprintf("mem-%d", len(p.alerts)), nil
}

// Close marks the publisher closed; further publishes fail.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Alerts returns a copy of everything published so far; test helper.
func (p *Publisher) Alerts() []Alert {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Alert, len(p.alerts))
	copy(out, p.alerts)
	return out
}
