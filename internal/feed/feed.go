// Package feed provides the change-feed capability: row-insert notifications
// for named record collections, published by the record store and consumed by
// chat sessions.
package feed

import (
	"context"
	"encoding/json"
	"time"
)

// Collection names carried on change events.
const (
	CollectionConversations = "conversations"
	CollectionMessages      = "messages"
)

// TypeInsert is the only event type published today.
const TypeInsert = "insert"

// Event is a single change notification. Sequence is assigned by the feed and
// increases monotonically per feed, independent of delivery order.
type Event struct {
	Collection string          `json:"collection"`
	Type       string          `json:"type"`
	Sequence   uint64          `json:"sequence,omitempty"`
	Data       json.RawMessage `json:"data"`
	At         time.Time       `json:"at"`
}

// Decode unmarshals the event row into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Publisher emits insert events for a collection. The record store publishes
// after every successful insert.
type Publisher interface {
	Publish(ctx context.Context, collection string, row any) (uint64, error)
}

// Subscription is a live stream of events for one collection. Unsubscribe is
// idempotent and closes the Events channel.
type Subscription interface {
	Events() <-chan Event
	Unsubscribe() error
}

// Feed is the full change-feed capability.
type Feed interface {
	Publisher
	Subscribe(ctx context.Context, collection string) (Subscription, error)
}
