package chat

import (
	"context"
	"sync"

	"github.com/mentorlink/mentorship-platform/internal/model"
)

// ConversationStore caches the viewer's enriched conversation list. The
// backend is the source of truth; Load refreshes the cache and a failed Load
// leaves the previous list intact for the caller to keep rendering.
type ConversationStore struct {
	svc    *Service
	viewer Viewer

	mu   sync.Mutex
	list []model.ConversationView
}

// NewConversationStore creates an empty conversation cache for the viewer.
func NewConversationStore(svc *Service, viewer Viewer) *ConversationStore {
	return &ConversationStore{svc: svc, viewer: viewer}
}

// Load fetches and enriches the conversation list. On failure the in-memory
// list is unchanged and the error is surfaced for user notification; there
// is no automatic retry.
func (s *ConversationStore) Load(ctx context.Context) error {
	views, err := s.svc.LoadConversations(ctx, s.viewer)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.list = views
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current list, ordered by last-message time
// descending.
func (s *ConversationStore) Snapshot() []model.ConversationView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ConversationView, len(s.list))
	copy(out, s.list)
	return out
}

// Get returns the cached view for a conversation, if present.
func (s *ConversationStore) Get(conversationID string) (model.ConversationView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, view := range s.list {
		if view.ID == conversationID {
			return view, true
		}
	}
	return model.ConversationView{}, false
}

// Create starts a conversation with the mentor, valid only for mentee
// viewers. An existing conversation for the pair is returned without a
// second insert. After a real creation the list is reloaded so the new
// thread appears with its denormalized fields.
func (s *ConversationStore) Create(ctx context.Context, mentorID string) (string, error) {
	mentee, ok := s.viewer.(Mentee)
	if !ok {
		return "", ErrInvalidRole
	}

	resp, err := s.svc.CreateConversation(ctx, mentee, mentorID)
	if err != nil {
		return "", err
	}
	if resp.Created {
		if err := s.Load(ctx); err != nil {
			return resp.ConversationID, err
		}
	}
	return resp.ConversationID, nil
}
