package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mentorlink/mentorship-platform/internal/feed"
	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/pkg/logger"
	"github.com/mentorlink/mentorship-platform/pkg/metrics"
)

// EventKind discriminates listener events.
type EventKind int

const (
	// MessageInserted signals a new row in the messages collection.
	MessageInserted EventKind = iota
	// ConversationInserted signals a new row in the conversations
	// collection.
	ConversationInserted
)

// Event is a decoded change-feed notification. Events are consumed on the
// session's own goroutine, never inside the feed's delivery callback, so
// store mutation is never re-entrant with delivery.
type Event struct {
	Kind     EventKind
	Sequence uint64
	Message  model.Message
}

// Listener bridges the change feed into typed events on a channel. It
// subscribes to inserts on the messages and conversations collections for
// the lifetime of the session and is torn down exactly once.
type Listener struct {
	log    *logger.Logger
	events chan Event
	subs   []feed.Subscription
	wg     sync.WaitGroup
	once   sync.Once
}

// NewListener subscribes to both collections and starts decoding.
func NewListener(ctx context.Context, f feed.Feed, log *logger.Logger) (*Listener, error) {
	msgSub, err := f.Subscribe(ctx, feed.CollectionMessages)
	if err != nil {
		return nil, err
	}
	convSub, err := f.Subscribe(ctx, feed.CollectionConversations)
	if err != nil {
		_ = msgSub.Unsubscribe()
		return nil, err
	}

	l := &Listener{
		log:    log,
		events: make(chan Event, 64),
		subs:   []feed.Subscription{msgSub, convSub},
	}

	l.wg.Add(2)
	go l.pump(msgSub, MessageInserted)
	go l.pump(convSub, ConversationInserted)
	go func() {
		l.wg.Wait()
		close(l.events)
	}()

	return l, nil
}

// Events returns the typed event stream. The channel closes after Close.
func (l *Listener) Events() <-chan Event {
	return l.events
}

// Close tears the subscriptions down. Safe to call more than once; only the
// first call releases them, so re-subscription never sees duplicate
// delivery.
func (l *Listener) Close() {
	l.once.Do(func() {
		for _, sub := range l.subs {
			_ = sub.Unsubscribe()
		}
	})
}

func (l *Listener) pump(sub feed.Subscription, kind EventKind) {
	defer l.wg.Done()
	for ev := range sub.Events() {
		metrics.FeedEventsTotal.WithLabelValues(ev.Collection).Inc()

		out := Event{Kind: kind, Sequence: ev.Sequence}
		if kind == MessageInserted {
			if err := ev.Decode(&out.Message); err != nil {
				l.log.Warn("undecodable change event",
					zap.String("collection", ev.Collection),
					zap.Error(err))
				continue
			}
		}
		l.events <- out
	}
}
