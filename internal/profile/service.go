// Package profile provides profile reads/updates, the mentor directory, and
// avatar storage.
package profile

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/internal/store"
	"github.com/mentorlink/mentorship-platform/pkg/logger"
)

// AvatarURLPrefix is the public path avatars are served under.
const AvatarURLPrefix = "/avatars/"

// maxAvatarBytes caps avatar uploads at 2MB.
const maxAvatarBytes = 2 << 20

// Service handles profile operations.
type Service struct {
	profiles store.ProfileRepo
	mentors  store.MentorRepo
	avatars  afero.Fs
	log      *logger.Logger
}

// NewService creates a profile service. avatars is the filesystem avatar
// binaries are written to; the HTTP layer serves it under AvatarURLPrefix.
func NewService(profiles store.ProfileRepo, mentors store.MentorRepo, avatars afero.Fs, log *logger.Logger) *Service {
	return &Service{
		profiles: profiles,
		mentors:  mentors,
		avatars:  avatars,
		log:      log,
	}
}

// Get returns a profile by ID.
func (s *Service) Get(ctx context.Context, id string) (*model.Profile, error) {
	return s.profiles.Get(ctx, id)
}

// Update applies the updatable fields to the viewer's own profile and
// returns the stored result.
func (s *Service) Update(ctx context.Context, profileID string, req *model.UpdateProfileRequest) (*model.Profile, error) {
	p := &model.Profile{
		ID:        profileID,
		FullName:  strings.TrimSpace(req.FullName),
		AvatarURL: req.AvatarURL,
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Mentors returns the mentor directory: all mentor profiles joined with
// their details.
func (s *Service) Mentors(ctx context.Context) ([]model.Mentor, error) {
	profiles, err := s.profiles.ListMentors(ctx)
	if err != nil {
		return nil, err
	}

	mentors := make([]model.Mentor, 0, len(profiles))
	for _, p := range profiles {
		m := model.Mentor{Profile: p}
		details, err := s.mentors.Details(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if details != nil {
			m.Title = details.Title
			m.Company = details.Company
		}
		mentors = append(mentors, m)
	}
	return mentors, nil
}

// UploadAvatar stores the avatar binary and points the profile at its
// durable URL. ext is the file extension including the dot.
func (s *Service) UploadAvatar(ctx context.Context, profileID string, ext string, r io.Reader) (string, error) {
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return "", fmt.Errorf("unsupported avatar type %q", ext)
	}

	name := profileID + ext
	f, err := s.avatars.Create(name)
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file: %w", err)
	}

	_, err = io.Copy(f, io.LimitReader(r, maxAvatarBytes))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.avatars.Remove(name)
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}

	url := path.Join(AvatarURLPrefix, name)
	if err := s.profiles.Update(ctx, &model.Profile{ID: profileID, AvatarURL: url}); err != nil {
		return "", err
	}

	s.log.Info("avatar uploaded",
		zap.String("profile_id", profileID),
		zap.String("url", url))
	return url, nil
}

// AvatarFS exposes the avatar filesystem for the HTTP file server.
func (s *Service) AvatarFS() afero.Fs {
	return s.avatars
}
