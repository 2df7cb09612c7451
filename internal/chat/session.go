package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mentorlink/mentorship-platform/internal/feed"
	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/pkg/logger"
)

// UpdateKind discriminates session updates pushed to the presentation layer.
type UpdateKind string

const (
	// UpdateConversations carries a refreshed conversation list.
	UpdateConversations UpdateKind = "conversations"
	// UpdateMessages carries the full history of the active conversation.
	UpdateMessages UpdateKind = "messages"
	// UpdateMessageAppended carries a single message appended to the
	// active conversation.
	UpdateMessageAppended UpdateKind = "message"
)

// Update is a state change the presentation layer should render.
type Update struct {
	Kind          UpdateKind               `json:"kind"`
	Conversations []model.ConversationView `json:"conversations,omitempty"`
	Messages      []model.MessageView      `json:"messages,omitempty"`
	Message       *model.MessageView       `json:"message,omitempty"`
}

// Session is the facade combining the conversation cache, the active message
// thread, and the change-feed listener for one authenticated viewer. It is
// created at sign-in and closed at sign-out or when the owning connection
// goes away.
type Session struct {
	viewer Viewer
	svc    *Service
	log    *logger.Logger

	conversations *ConversationStore
	messages      *MessageStore
	listener      *Listener

	updates chan Update
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	loading bool
	lastErr error
}

// NewSession builds the facade, performs the initial conversation load, and
// starts consuming the change feed.
func NewSession(ctx context.Context, viewer Viewer, svc *Service, f feed.Feed, log *logger.Logger) (*Session, error) {
	log = log.WithViewer(viewer.ID(), string(viewer.Profile().Role))

	s := &Session{
		viewer:        viewer,
		svc:           svc,
		log:           log,
		conversations: NewConversationStore(svc, viewer),
		messages:      NewMessageStore(svc, viewer),
		updates:       make(chan Update, 64),
		done:          make(chan struct{}),
	}

	s.setLoading(true)
	err := s.conversations.Load(ctx)
	s.setLoading(false)
	if err != nil {
		s.setErr(err)
		return nil, err
	}

	listener, err := NewListener(ctx, f, log)
	if err != nil {
		return nil, err
	}
	s.listener = listener

	go s.run()
	return s, nil
}

// Viewer returns the session's viewer.
func (s *Session) Viewer() Viewer { return s.viewer }

// Conversations returns the current conversation list.
func (s *Session) Conversations() []model.ConversationView {
	return s.conversations.Snapshot()
}

// Messages returns the active conversation's history.
func (s *Session) Messages() []model.MessageView {
	return s.messages.Snapshot()
}

// Loading reports whether the initial load is still running.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the most recent non-fatal error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Updates is the stream of state changes for the presentation layer. Pushed
// best-effort: a slow consumer loses intermediate updates, never current
// state, which it can always re-read from the accessors.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// SelectConversation makes a conversation active and loads its history. The
// mark-read side effect changes the viewer's unread counts, so the
// conversation list is refreshed afterwards.
func (s *Session) SelectConversation(ctx context.Context, conversationID string) error {
	if err := s.messages.Select(ctx, conversationID); err != nil {
		s.setErr(err)
		return err
	}
	s.push(Update{Kind: UpdateMessages, Messages: s.messages.Snapshot()})

	if err := s.conversations.Load(ctx); err != nil {
		s.setErr(err)
		return err
	}
	s.push(Update{Kind: UpdateConversations, Conversations: s.conversations.Snapshot()})
	return nil
}

// Send writes a message to the active conversation.
func (s *Session) Send(ctx context.Context, content string) error {
	if _, err := s.messages.Send(ctx, content); err != nil {
		return err
	}
	return nil
}

// CreateConversation starts (or finds) a conversation with the mentor and
// selects it.
func (s *Session) CreateConversation(ctx context.Context, mentorID string) (string, error) {
	id, err := s.conversations.Create(ctx, mentorID)
	if err != nil {
		s.setErr(err)
		return "", err
	}
	s.push(Update{Kind: UpdateConversations, Conversations: s.conversations.Snapshot()})

	if err := s.SelectConversation(ctx, id); err != nil {
		return id, err
	}
	return id, nil
}

// Close tears down the feed subscriptions and stops the event loop. The
// subscriptions are released exactly once, so a later session never sees
// duplicate delivery.
func (s *Session) Close() {
	s.once.Do(func() {
		s.listener.Close()
		close(s.done)
	})
}

// run is the session's event loop: the only goroutine that mutates store
// state in response to feed traffic.
func (s *Session) run() {
	ctx := context.Background()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.listener.Events():
			if !ok {
				return
			}
			s.handle(ctx, ev)
		}
	}
}

func (s *Session) handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case MessageInserted:
		if ev.Message.ConversationID == s.messages.ActiveConversation() {
			view, err := s.svc.ResolveMessage(ctx, s.viewer, ev.Message)
			if err != nil {
				s.log.Warn("failed to resolve feed message", zap.Error(err))
			} else if s.messages.Append(view) {
				s.push(Update{Kind: UpdateMessageAppended, Message: &view})
			}
		}
		// Previews, ordering, and unread counts move for every insert,
		// active conversation or not.
		s.reloadConversations(ctx)

	case ConversationInserted:
		s.reloadConversations(ctx)
	}
}

func (s *Session) reloadConversations(ctx context.Context) {
	if err := s.conversations.Load(ctx); err != nil {
		s.setErr(err)
		s.log.Warn("conversation reload failed", zap.Error(err))
		return
	}
	s.push(Update{Kind: UpdateConversations, Conversations: s.conversations.Snapshot()})
}

func (s *Session) push(u Update) {
	select {
	case s.updates <- u:
	default:
		s.log.Debug("session update dropped", zap.String("kind", string(u.Kind)))
	}
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
