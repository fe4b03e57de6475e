package natsadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// Subscriber receives post events over core NATS. Live map fan-out only cares
// about events that arrive while a client is connected, so it does not use a
// durable consumer.
type Subscriber struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := Connect(url, "dishdash-subscriber")
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Subscriber{conn: conn}, nil
}

// SubscribePostsCreated calls handler for every created post. Malformed
// messages are logged and skipped.
func (s *Subscriber) SubscribePostsCreated(handler func(post *domain.Post)) error {
	sub, err := s.conn.Subscribe(SubjectPostCreated, func(msg *nats.Msg) {
		var post domain.Post
		if err := json.Unmarshal(msg.Data, &post); err != nil {
			slog.Warn("dropping malformed post event", "subject", msg.Subject, "error", err)
			return
		}
		handler(&post)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
