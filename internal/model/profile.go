// Package model defines data structures for the mentorship platform.
package model

import (
	"time"
)

// Role identifies which side of the marketplace a profile belongs to.
type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
)

// Profile is a user profile as stored in the profiles collection.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MentorDetails holds the mentor-only fields joined onto a profile.
type MentorDetails struct {
	ProfileID string `json:"profile_id"`
	Title     string `json:"title,omitempty"`
	Company   string `json:"company,omitempty"`
}

// ProfileSnapshot is the denormalized sender/counterpart view attached to
// conversations and messages at read time. Title and Company are only set
// when the profile is a mentor with details on file.
type ProfileSnapshot struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      Role   `json:"role"`
	Title     string `json:"title,omitempty"`
	Company   string `json:"company,omitempty"`
}

// Mentor is a directory entry for the find-a-mentor flow.
type Mentor struct {
	Profile
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
}

// UpdateProfileRequest is the request to update the viewer's own profile.
type UpdateProfileRequest struct {
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
