package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/mentorlink/mentorship-platform/pkg/logger"
)

const (
	// StreamName is the JetStream stream holding all change events.
	StreamName = "CHANGES"

	// SubjectPrefix is the prefix for all change subjects.
	SubjectPrefix = "chg"
)

// Config holds NATS connection configuration.
type Config struct {
	URL   string
	Token string
}

// NATSFeed implements Feed on a NATS JetStream stream. Each collection maps
// to a subject chg.<collection>.insert; the stream sequence becomes the event
// sequence.
type NATSFeed struct {
	conn *nats.Conn
	js   jetstream.JetStream
	log  *logger.Logger
}

// ConnectNATS establishes the NATS connection and ensures the change stream
// exists.
func ConnectNATS(ctx context.Context, cfg Config, log *logger.Logger) (*NATSFeed, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	f := &NATSFeed{conn: nc, js: js, log: log}
	if err := f.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return f, nil
}

func (f *NATSFeed) ensureStream(ctx context.Context) error {
	_, err := f.js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = f.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Row-insert change events for record collections",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// InsertSubject returns the subject for insert events on a collection.
func InsertSubject(collection string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, collection, TypeInsert)
}

// Publish marshals the row and publishes it as an insert event.
func (f *NATSFeed) Publish(ctx context.Context, collection string, row any) (uint64, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal change event: %w", err)
	}

	ack, err := f.js.Publish(ctx, InsertSubject(collection), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish change event: %w", err)
	}
	return ack.Sequence, nil
}

// Subscribe delivers new insert events for the collection, starting from the
// moment of subscription.
func (f *NATSFeed) Subscribe(ctx context.Context, collection string) (Subscription, error) {
	consumer, err := f.js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject:     InsertSubject(collection),
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: 5 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	sub := &natsSubscription{
		events: make(chan Event, 64),
		log:    f.log,
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		ev := Event{
			Collection: collection,
			Type:       TypeInsert,
			Data:       msg.Data(),
			At:         time.Now(),
		}
		if meta, err := msg.Metadata(); err == nil {
			ev.Sequence = meta.Sequence.Stream
			ev.At = meta.Timestamp
		}
		if !sub.deliver(ev) {
			f.log.Warn("change event dropped, subscriber too slow",
				zap.String("collection", collection))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to consume stream: %w", err)
	}
	sub.stop = cc.Stop

	return sub, nil
}

// IsConnected reports whether the underlying NATS connection is up.
func (f *NATSFeed) IsConnected() bool {
	return f.conn != nil && f.conn.IsConnected()
}

// Close closes the NATS connection.
func (f *NATSFeed) Close() {
	if f.conn != nil {
		f.conn.Close()
	}
}

type natsSubscription struct {
	events chan Event
	stop   func()
	once   sync.Once
	log    *logger.Logger

	mu     sync.Mutex
	closed bool
}

func (s *natsSubscription) Events() <-chan Event { return s.events }

// deliver enqueues ev unless the subscription is closed or the buffer is
// full. The mutex keeps sends ordered against close.
func (s *natsSubscription) deliver(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

func (s *natsSubscription) Unsubscribe() error {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		s.mu.Lock()
		s.closed = true
		close(s.events)
		s.mu.Unlock()
	})
	return nil
}
