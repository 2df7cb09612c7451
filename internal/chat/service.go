package chat

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/internal/store"
	"github.com/mentorlink/mentorship-platform/pkg/logger"
	"github.com/mentorlink/mentorship-platform/pkg/metrics"
)

// Service holds the stateless conversation/message operations. Both the REST
// handlers and the stateful session stores go through it, so the enrichment
// and validation rules live in exactly one place.
type Service struct {
	store *store.Store
	log   *logger.Logger
}

// NewService creates a chat service over the given record store.
func NewService(st *store.Store, log *logger.Logger) *Service {
	return &Service{store: st, log: log}
}

// LoadConversations returns every conversation the viewer takes part in,
// ordered by last-message time descending, each enriched with the
// counterpart snapshot, last-message preview, and the viewer's unread count.
func (s *Service) LoadConversations(ctx context.Context, v Viewer) ([]model.ConversationView, error) {
	convs, err := s.store.Conversations.ListByParticipant(ctx, v.ID())
	if err != nil {
		return nil, err
	}

	snapshots := make(map[string]model.ProfileSnapshot)
	views := make([]model.ConversationView, 0, len(convs))
	for _, conv := range convs {
		view := model.ConversationView{Conversation: conv}

		counterpart, err := s.snapshot(ctx, conv.CounterpartID(v.ID()), snapshots)
		if err != nil {
			return nil, err
		}
		view.Counterpart = counterpart

		latest, err := s.store.Messages.Latest(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			view.LastMessage = &model.MessagePreview{
				Content:   latest.Content,
				SenderID:  latest.SenderID,
				CreatedAt: latest.CreatedAt,
			}
		}

		unread, err := s.store.Messages.CountUnread(ctx, conv.ID, v.ID())
		if err != nil {
			return nil, err
		}
		view.UnreadCount = unread

		views = append(views, view)
	}
	return views, nil
}

// LoadMessages returns the full history of the conversation, oldest first,
// with sender snapshots resolved, then marks everything not sent by the
// viewer as read. Mark-read failures are logged and counted but do not fail
// the load; read receipts are best-effort.
func (s *Service) LoadMessages(ctx context.Context, v Viewer, conversationID string) ([]model.MessageView, error) {
	conv, err := s.store.Conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(v.ID()) {
		return nil, ErrNotParticipant
	}

	msgs, err := s.store.Messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	snapshots := make(map[string]model.ProfileSnapshot)
	views := make([]model.MessageView, 0, len(msgs))
	for _, msg := range msgs {
		sender, err := s.snapshot(ctx, msg.SenderID, snapshots)
		if err != nil {
			return nil, err
		}
		views = append(views, model.MessageView{
			Message:    msg,
			Sender:     sender,
			FromViewer: msg.SenderID == v.ID(),
		})
	}

	if err := s.store.Messages.MarkRead(ctx, conversationID, v.ID()); err != nil {
		metrics.MarkReadFailuresTotal.Inc()
		s.log.Warn("mark-read failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
	}

	return views, nil
}

// Send validates and stores a new text message from the viewer. Content is
// trimmed; whitespace-only content is rejected before any write. The
// canonical row reaches subscribed sessions through the change feed, so no
// local append happens here.
func (s *Service) Send(ctx context.Context, v Viewer, conversationID, content string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.store.Conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(v.ID()) {
		return nil, ErrNotParticipant
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       v.ID(),
		Content:        content,
		Type:           model.MessageTypeText,
	}

	start := time.Now()
	if err := s.store.Messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	metrics.SendDuration.Observe(time.Since(start).Seconds())
	metrics.MessagesTotal.WithLabelValues(string(v.Profile().Role)).Inc()

	return msg, nil
}

// CreateConversation starts a conversation between the mentee and a mentor.
// At most one conversation exists per pair: an existing one is returned
// as-is. Taking a Mentee makes mentor-side creation unrepresentable.
func (s *Service) CreateConversation(ctx context.Context, m Mentee, mentorID string) (*model.CreateConversationResponse, error) {
	existing, err := s.store.Conversations.FindByPair(ctx, mentorID, m.ID())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &model.CreateConversationResponse{ConversationID: existing.ID}, nil
	}

	conv := &model.Conversation{
		MentorID: mentorID,
		MenteeID: m.ID(),
	}
	if err := s.store.Conversations.Insert(ctx, conv); err != nil {
		return nil, err
	}
	metrics.ConversationsTotal.Inc()

	s.log.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("mentor_id", mentorID),
		zap.String("mentee_id", m.ID()))

	return &model.CreateConversationResponse{ConversationID: conv.ID, Created: true}, nil
}

// ResolveMessage enriches a raw message row, typically one delivered by the
// change feed, into the viewer's display form.
func (s *Service) ResolveMessage(ctx context.Context, v Viewer, msg model.Message) (model.MessageView, error) {
	sender, err := s.snapshot(ctx, msg.SenderID, nil)
	if err != nil {
		return model.MessageView{}, err
	}
	return model.MessageView{
		Message:    msg,
		Sender:     sender,
		FromViewer: msg.SenderID == v.ID(),
	}, nil
}

// snapshot resolves a profile into its denormalized snapshot, joining mentor
// details when the profile is a mentor. cache, when non-nil, memoizes within
// a single load.
func (s *Service) snapshot(ctx context.Context, profileID string, cache map[string]model.ProfileSnapshot) (model.ProfileSnapshot, error) {
	if cache != nil {
		if snap, ok := cache[profileID]; ok {
			return snap, nil
		}
	}

	p, err := s.store.Profiles.Get(ctx, profileID)
	if err != nil {
		return model.ProfileSnapshot{}, err
	}

	snap := model.ProfileSnapshot{
		ID:        p.ID,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		Role:      p.Role,
	}
	if p.Role == model.RoleMentor {
		details, err := s.store.Mentors.Details(ctx, p.ID)
		if err != nil {
			return model.ProfileSnapshot{}, err
		}
		if details != nil {
			snap.Title = details.Title
			snap.Company = details.Company
		}
	}

	if cache != nil {
		cache[profileID] = snap
	}
	return snap, nil
}
