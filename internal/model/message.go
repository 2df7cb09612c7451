package model

import (
	"time"
)

// MessageType tags the message payload kind. Only text exists today; the tag
// is stored so richer kinds can be added without a migration.
type MessageType string

const (
	MessageTypeText MessageType = "text"
)

// Message is a single chat message. Immutable after creation except for the
// read flag, which flips to true via a bulk mark-read scoped to a
// conversation.
type Message struct {
	ID              string      `json:"id"`
	ConversationID  string      `json:"conversation_id"`
	SenderID        string      `json:"sender_id"`
	Content         string      `json:"content"`
	Type            MessageType `json:"message_type"`
	ReadByRecipient bool        `json:"read_by_recipient"`
	CreatedAt       time.Time   `json:"created_at"`
}

// MessageView is a message enriched with its sender snapshot and the
// viewer-relative alignment flag the presentation layer renders from.
type MessageView struct {
	Message
	Sender     ProfileSnapshot `json:"sender"`
	FromViewer bool            `json:"from_viewer"`
}

// SendMessageRequest is the request to send a message in a conversation.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// ListMessagesResponse is the response for a conversation's history,
// chronological, oldest first.
type ListMessagesResponse struct {
	Messages []MessageView `json:"messages"`
}
