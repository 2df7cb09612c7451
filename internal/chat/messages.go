package chat

import (
	"context"
	"sync"

	"github.com/mentorlink/mentorship-platform/internal/model"
)

// MessageStore holds the ordered history of the single active conversation.
// Selecting a conversation clears the previous history before loading, and a
// load superseded by a later select is discarded when it resolves, so stale
// results never bleed across conversations.
type MessageStore struct {
	svc    *Service
	viewer Viewer

	mu       sync.Mutex
	activeID string
	gen      uint64
	msgs     []model.MessageView
	sending  bool
}

// NewMessageStore creates a message store with no active conversation.
func NewMessageStore(svc *Service, viewer Viewer) *MessageStore {
	return &MessageStore{svc: svc, viewer: viewer}
}

// Select makes the conversation active and loads its history, marking unread
// messages as read as a side effect. A select that is overtaken by a newer
// one drops its result on return.
func (s *MessageStore) Select(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	s.activeID = conversationID
	s.msgs = nil
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	views, err := s.svc.LoadMessages(ctx, s.viewer, conversationID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// A newer select owns the store now; this result is stale.
		return nil
	}
	if err != nil {
		return err
	}
	s.msgs = views
	return nil
}

// ActiveConversation returns the ID of the active conversation, or empty.
func (s *MessageStore) ActiveConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Snapshot returns a copy of the history, oldest first.
func (s *MessageStore) Snapshot() []model.MessageView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.MessageView, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Sending reports whether a send is in flight, so the caller can disable the
// submit control.
func (s *MessageStore) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Send validates and writes a message to the active conversation. Exactly
// one send may be in flight; a concurrent call fails with ErrAlreadySending
// instead of queueing. Failed content is not re-queued; the caller retries
// explicitly. The canonical row arrives via the change feed, so nothing is
// appended locally here.
func (s *MessageStore) Send(ctx context.Context, content string) (*model.Message, error) {
	s.mu.Lock()
	if s.activeID == "" {
		s.mu.Unlock()
		return nil, ErrNoActiveConversation
	}
	if s.sending {
		s.mu.Unlock()
		return nil, ErrAlreadySending
	}
	s.sending = true
	conversationID := s.activeID
	s.mu.Unlock()

	msg, err := s.svc.Send(ctx, s.viewer, conversationID, content)

	s.mu.Lock()
	s.sending = false
	s.mu.Unlock()

	return msg, err
}

// Append merges a feed-delivered message into the history. It returns false
// when the message belongs to another conversation or is already present
// (feed redelivery). Arrival order is not trusted: the message is placed by
// creation time, with a fast path for the common newest-at-tail case.
func (s *MessageStore) Append(view model.MessageView) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeID == "" || view.ConversationID != s.activeID {
		return false
	}
	for _, existing := range s.msgs {
		if existing.ID == view.ID {
			return false
		}
	}

	n := len(s.msgs)
	if n == 0 || !view.CreatedAt.Before(s.msgs[n-1].CreatedAt) {
		s.msgs = append(s.msgs, view)
		return true
	}

	i := n
	for i > 0 && view.CreatedAt.Before(s.msgs[i-1].CreatedAt) {
		i--
	}
	s.msgs = append(s.msgs, model.MessageView{})
	copy(s.msgs[i+1:], s.msgs[i:])
	s.msgs[i] = view
	return true
}
