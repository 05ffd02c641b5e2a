// Package publish delivers real-time events to connected clients.
// Delivery is best effort: callers log failures and carry on.
package publish

import (
	"context"
	"time"
)

type Publisher interface {
	Publish(ctx context.Context, topic, event string, payload any) error
}

// Envelope is the wire format of every published event.
type Envelope struct {
	Event       string    `json:"event"`
	Topic       string    `json:"topic"`
	Payload     any       `json:"payload"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(ctx context.Context, topic, event string, payload any) error {
	return nil
}
