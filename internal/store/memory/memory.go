// Package memory provides in-memory repositories backing the record-store
// capability for tests and dev mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mentorlink/mentorship-platform/internal/feed"
	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/internal/store"
)

// New builds a store.Store over shared in-memory state. Inserts publish
// change events through pub.
func New(pub feed.Publisher) *store.Store {
	db := &db{
		pub:           pub,
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string]*model.Message),
		profiles:      make(map[string]*model.Profile),
		mentors:       make(map[string]*model.MentorDetails),
	}
	return &store.Store{
		Conversations: &conversationRepo{db},
		Messages:      &messageRepo{db},
		Profiles:      &profileRepo{db},
		Mentors:       &mentorRepo{db},
	}
}

type db struct {
	mu  sync.RWMutex
	pub feed.Publisher

	conversations map[string]*model.Conversation
	messages      map[string]*model.Message
	profiles      map[string]*model.Profile
	mentors       map[string]*model.MentorDetails
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

type conversationRepo struct{ *db }

func (r *conversationRepo) ListByParticipant(ctx context.Context, profileID string) ([]model.Conversation, error) {
	r.mu.RLock()
	var convs []model.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(profileID) {
			convs = append(convs, *c)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].LastMessageAt.After(convs[j].LastMessageAt)
	})
	return convs, nil
}

func (r *conversationRepo) Get(ctx context.Context, id string) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *conversationRepo) FindByPair(ctx context.Context, mentorID, menteeID string) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conversations {
		if c.MentorID == mentorID && c.MenteeID == menteeID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *conversationRepo) Insert(ctx context.Context, conv *model.Conversation) error {
	if conv.ID == "" {
		conv.ID = newID()
	}
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.LastMessageAt.IsZero() {
		conv.LastMessageAt = conv.CreatedAt
	}

	r.mu.Lock()
	cp := *conv
	r.conversations[conv.ID] = &cp
	r.mu.Unlock()

	if r.pub != nil {
		if _, err := r.pub.Publish(ctx, feed.CollectionConversations, conv); err != nil {
			return &store.WriteError{Collection: feed.CollectionConversations, Err: err}
		}
	}
	return nil
}

type messageRepo struct{ *db }

func (r *messageRepo) ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	r.mu.RLock()
	var msgs []model.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			msgs = append(msgs, *m)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

func (r *messageRepo) Latest(ctx context.Context, conversationID string) (*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *model.Message
	for _, m := range r.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *messageRepo) CountUnread(ctx context.Context, conversationID, viewerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.SenderID != viewerID && !m.ReadByRecipient {
			count++
		}
	}
	return count, nil
}

func (r *messageRepo) Insert(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = newID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Type == "" {
		msg.Type = model.MessageTypeText
	}

	r.mu.Lock()
	cp := *msg
	r.messages[msg.ID] = &cp
	if conv, ok := r.conversations[msg.ConversationID]; ok {
		conv.LastMessageAt = msg.CreatedAt
	}
	r.mu.Unlock()

	if r.pub != nil {
		if _, err := r.pub.Publish(ctx, feed.CollectionMessages, msg); err != nil {
			return &store.WriteError{Collection: feed.CollectionMessages, Err: err}
		}
	}
	return nil
}

func (r *messageRepo) MarkRead(ctx context.Context, conversationID, readerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.SenderID != readerID {
			m.ReadByRecipient = true
		}
	}
	return nil
}

type profileRepo struct{ *db }

func (r *profileRepo) Get(ctx context.Context, id string) (*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *profileRepo) Insert(ctx context.Context, p *model.Profile) error {
	if p.ID == "" {
		p.ID = newID()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r *profileRepo) Update(ctx context.Context, p *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.profiles[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	if p.FullName != "" {
		existing.FullName = p.FullName
	}
	if p.AvatarURL != "" {
		existing.AvatarURL = p.AvatarURL
	}
	existing.UpdatedAt = time.Now().UTC()
	*p = *existing
	return nil
}

func (r *profileRepo) ListMentors(ctx context.Context) ([]model.Profile, error) {
	r.mu.RLock()
	var mentors []model.Profile
	for _, p := range r.profiles {
		if p.Role == model.RoleMentor {
			mentors = append(mentors, *p)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(mentors, func(i, j int) bool {
		return mentors[i].FullName < mentors[j].FullName
	})
	return mentors, nil
}

type mentorRepo struct{ *db }

func (r *mentorRepo) Details(ctx context.Context, profileID string) (*model.MentorDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.mentors[profileID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *mentorRepo) Upsert(ctx context.Context, d *model.MentorDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.mentors[d.ProfileID] = &cp
	return nil
}
