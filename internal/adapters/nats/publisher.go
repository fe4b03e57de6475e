package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dishdash/dishdash/internal/core/domain"
)

const (
	// StreamPosts holds post lifecycle events.
	StreamPosts = "POSTS"

	// SubjectPostCreated carries a JSON domain.Post for every stored review.
	SubjectPostCreated = "dishdash.posts.created"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Connect dials NATS with the reconnect policy shared by publishers and subscribers.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url, "dishdash-publisher")
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      StreamPosts,
		Subjects:  []string{"dishdash.posts.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishPostCreated publishes a stored post. The post id doubles as the
// JetStream message id so retried publishes are deduplicated.
func (p *Publisher) PublishPostCreated(ctx context.Context, post *domain.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectPostCreated, data, nats.Context(ctx), nats.MsgId(post.ID))
	return err
}

// Healthy reports whether the connection is up.
func (p *Publisher) Healthy() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
