// Package store defines the record-store capability: filtered reads, inserts,
// and updates over the platform's record collections. The backend is the
// source of truth; callers treat these repositories as read-through,
// write-through.
package store

import (
	"context"
	"errors"

	"github.com/mentorlink/mentorship-platform/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ConversationRepo manages the conversations collection.
type ConversationRepo interface {
	// ListByParticipant returns every conversation the profile takes part
	// in, ordered by last-message time descending.
	ListByParticipant(ctx context.Context, profileID string) ([]model.Conversation, error)

	// Get returns a conversation by ID.
	Get(ctx context.Context, id string) (*model.Conversation, error)

	// FindByPair returns the conversation for a (mentor, mentee) pair, or
	// nil when none exists.
	FindByPair(ctx context.Context, mentorID, menteeID string) (*model.Conversation, error)

	// Insert stores a new conversation, assigning ID and timestamps when
	// unset, and publishes an insert event.
	Insert(ctx context.Context, conv *model.Conversation) error
}

// MessageRepo manages the messages collection.
type MessageRepo interface {
	// ListByConversation returns the full history, oldest first.
	ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error)

	// Latest returns the most recent message of a conversation, or nil
	// when the conversation has none.
	Latest(ctx context.Context, conversationID string) (*model.Message, error)

	// CountUnread counts messages in the conversation not sent by the
	// viewer and not yet marked read.
	CountUnread(ctx context.Context, conversationID, viewerID string) (int, error)

	// Insert stores a new message, bumps the conversation's last-message
	// time, and publishes an insert event.
	Insert(ctx context.Context, msg *model.Message) error

	// MarkRead flags every message in the conversation not sent by the
	// reader as read by the recipient.
	MarkRead(ctx context.Context, conversationID, readerID string) error
}

// ProfileRepo manages the profiles collection.
type ProfileRepo interface {
	Get(ctx context.Context, id string) (*model.Profile, error)
	Insert(ctx context.Context, p *model.Profile) error
	Update(ctx context.Context, p *model.Profile) error

	// ListMentors returns all mentor-role profiles for the directory.
	ListMentors(ctx context.Context) ([]model.Profile, error)
}

// MentorRepo manages the mentor-details collection.
type MentorRepo interface {
	// Details returns the mentor-only fields for a profile, or nil when
	// none are on file.
	Details(ctx context.Context, profileID string) (*model.MentorDetails, error)
	Upsert(ctx context.Context, d *model.MentorDetails) error
}

// Store bundles the repositories over one backend.
type Store struct {
	Conversations ConversationRepo
	Messages      MessageRepo
	Profiles      ProfileRepo
	Mentors       MentorRepo
}
