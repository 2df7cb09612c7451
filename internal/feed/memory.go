package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryFeed is an in-process Feed used in dev mode and tests. Events are
// fanned out to all subscribers of the collection; sequence numbers are
// assigned from a single counter so ordering matches the NATS-backed feed.
type MemoryFeed struct {
	mu   sync.Mutex
	seq  uint64
	subs map[string][]*memorySubscription
}

// NewMemoryFeed constructs an empty in-process feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[string][]*memorySubscription)}
}

// Publish marshals the row and delivers it to every subscriber of the
// collection.
func (f *MemoryFeed) Publish(ctx context.Context, collection string, row any) (uint64, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal change event: %w", err)
	}

	f.mu.Lock()
	f.seq++
	ev := Event{
		Collection: collection,
		Type:       TypeInsert,
		Sequence:   f.seq,
		Data:       data,
		At:         time.Now(),
	}
	subs := make([]*memorySubscription, len(f.subs[collection]))
	copy(subs, f.subs[collection])
	f.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(ev)
	}
	return ev.Sequence, nil
}

// Subscribe registers a new subscriber for the collection.
func (f *MemoryFeed) Subscribe(ctx context.Context, collection string) (Subscription, error) {
	sub := &memorySubscription{
		feed:       f,
		collection: collection,
		events:     make(chan Event, 64),
	}

	f.mu.Lock()
	f.subs[collection] = append(f.subs[collection], sub)
	f.mu.Unlock()

	return sub, nil
}

func (f *MemoryFeed) remove(sub *memorySubscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.subs[sub.collection]
	for i, s := range subs {
		if s == sub {
			f.subs[sub.collection] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

type memorySubscription struct {
	feed       *MemoryFeed
	collection string
	events     chan Event
	once       sync.Once

	mu     sync.Mutex
	closed bool
}

func (s *memorySubscription) Events() <-chan Event { return s.events }

func (s *memorySubscription) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}

func (s *memorySubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.feed.remove(s)
		s.mu.Lock()
		s.closed = true
		close(s.events)
		s.mu.Unlock()
	})
	return nil
}
