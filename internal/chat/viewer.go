// Package chat implements the conversation and message synchronization core:
// enriched conversation lists, the active message thread, change-feed
// consumption, and the per-viewer session facade the API surface talks to.
package chat

import (
	"github.com/mentorlink/mentorship-platform/internal/model"
)

// Viewer is the authenticated party a session acts for. The two concrete
// variants carry the role in the type so role-gated operations take the
// variant they require instead of checking a string at runtime.
type Viewer interface {
	Profile() model.Profile
	ID() string

	// sealed keeps Mentee and Mentor the only implementations.
	sealed()
}

// Mentee is a viewer on the mentee side of the marketplace.
type Mentee struct {
	profile model.Profile
}

// Mentor is a viewer on the mentor side of the marketplace.
type Mentor struct {
	profile model.Profile
}

func (m Mentee) Profile() model.Profile { return m.profile }
func (m Mentee) ID() string             { return m.profile.ID }
func (m Mentee) sealed()                {}

func (m Mentor) Profile() model.Profile { return m.profile }
func (m Mentor) ID() string             { return m.profile.ID }
func (m Mentor) sealed()                {}

// NewViewer wraps a profile in its role variant.
func NewViewer(p model.Profile) (Viewer, error) {
	switch p.Role {
	case model.RoleMentee:
		return Mentee{profile: p}, nil
	case model.RoleMentor:
		return Mentor{profile: p}, nil
	default:
		return nil, ErrUnknownRole
	}
}
