package model

import (
	"time"
)

// Conversation is a mentor/mentee thread. Participants are fixed at creation;
// at most one conversation exists per (mentor, mentee) pair.
type Conversation struct {
	ID            string    `json:"id"`
	MentorID      string    `json:"mentor_id"`
	MenteeID      string    `json:"mentee_id"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// CounterpartID returns the participant that is not the given viewer.
func (c Conversation) CounterpartID(viewerID string) string {
	if c.MentorID == viewerID {
		return c.MenteeID
	}
	return c.MentorID
}

// HasParticipant reports whether the given profile is one of the two parties.
func (c Conversation) HasParticipant(profileID string) bool {
	return c.MentorID == profileID || c.MenteeID == profileID
}

// MessagePreview is the most recent message of a conversation, denormalized
// onto the conversation list.
type MessagePreview struct {
	Content   string    `json:"content"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationView is a conversation enriched for the viewer: counterpart
// snapshot, last-message preview, and the viewer's unread count. Computed at
// read time, never stored.
type ConversationView struct {
	Conversation
	Counterpart ProfileSnapshot `json:"counterpart"`
	LastMessage *MessagePreview `json:"last_message,omitempty"`
	UnreadCount int             `json:"unread_count"`
}

// CreateConversationRequest is the request to start a conversation with a
// mentor. Only mentees may create conversations.
type CreateConversationRequest struct {
	MentorID string `json:"mentor_id"`
}

// CreateConversationResponse reports the conversation for the pair. Created
// is false when the pair already had one.
type CreateConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Created        bool   `json:"created"`
}

// ListConversationsResponse is the response for listing conversations,
// ordered by last-message time descending.
type ListConversationsResponse struct {
	Conversations []ConversationView `json:"conversations"`
	Total         int                `json:"total"`
}
