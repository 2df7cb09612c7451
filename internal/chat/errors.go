package chat

import (
	"errors"
)

var (
	// ErrInvalidRole is returned when a role-gated operation is invoked by
	// the wrong side of the marketplace, e.g. a mentor creating a
	// conversation. The presentation layer is expected to gate this away.
	ErrInvalidRole = errors.New("operation not permitted for viewer role")

	// ErrEmptyMessage is returned when a message is empty after trimming.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrNoActiveConversation is returned when sending without a selected
	// conversation.
	ErrNoActiveConversation = errors.New("no active conversation")

	// ErrAlreadySending is returned when a send is already in flight.
	// Callers retry explicitly; sends are never queued.
	ErrAlreadySending = errors.New("a send is already in flight")

	// ErrNotParticipant is returned when the viewer is not a party to the
	// conversation being accessed.
	ErrNotParticipant = errors.New("viewer is not a conversation participant")

	// ErrUnknownRole is returned when a profile carries a role tag the
	// platform does not know.
	ErrUnknownRole = errors.New("unknown profile role")
)
