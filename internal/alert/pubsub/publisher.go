// Package pubsub publishes alerts to Google Cloud Pub/Sub topics.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	gpubsub "cloud.google.com/go/pubsub"
)

// Publisher sends alert payloads as JSON messages. Topic handles are
// cached per topic name and stopped on Close.
type Publisher struct {
	client *gpubsub.Client

	mu     sync.Mutex
	topics map[string]*gpubsub.Topic
}

// New creates a Pub/Sub client for the project. Authentication is
// handled via Application Default Credentials.
func New(ctx context.Context, projectID string) (*Publisher, error) {
	client, err := gpubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &Publisher{client: client, topics: make(map[string]*gpubsub.Topic)}, nil
}

// NewWithClient wraps an existing client. The publisher takes ownership
// and closes it on Close.
func NewWithClient(client *gpubsub.Client) *Publisher {
	return &Publisher{client: client, topics: make(map[string]*gpubsub.Topic)}
}

// Publish marshals the payload to JSON and publishes it, blocking until
// the server acknowledges the message.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal alert payload: %w", err)
	}

	result := p.topic(topic).Publish(ctx, &gpubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to topic %s: %w", topic, err)
	}
	return id, nil
}

// Close stops all topic publishers and releases the client.
func (p *Publisher) Close() error {
	p.mu.Lock()
	for _, t := range p.topics {
		t.Stop()
	}
	p.mu.Unlock()

	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}

func (p *Publisher) topic(name string) *gpubsub.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.topics[name]
	if !ok {
		t = p.client.Topic(name)
		p.topics[name] = t
	}
	return t
}
