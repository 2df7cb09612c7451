package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mentorlink/mentorship-platform/internal/feed"
	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/internal/store"
	"github.com/mentorlink/mentorship-platform/internal/store/memory"
	"github.com/mentorlink/mentorship-platform/pkg/logger"
)

// testEnv wires a memory store and in-process feed with one mentor and one
// mentee on file.
type testEnv struct {
	feed   *feed.MemoryFeed
	store  *store.Store
	svc    *Service
	mentor Mentor
	mentee Mentee
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	f := feed.NewMemoryFeed()
	st := memory.New(f)

	mentorProfile := &model.Profile{FullName: "Ada Mentor", Role: model.RoleMentor}
	require.NoError(t, st.Profiles.Insert(ctx, mentorProfile))
	require.NoError(t, st.Mentors.Upsert(ctx, &model.MentorDetails{
		ProfileID: mentorProfile.ID,
		Title:     "Staff Engineer",
		Company:   "Acme",
	}))

	menteeProfile := &model.Profile{FullName: "Ben Mentee", Role: model.RoleMentee}
	require.NoError(t, st.Profiles.Insert(ctx, menteeProfile))

	mentorViewer, err := NewViewer(*mentorProfile)
	require.NoError(t, err)
	menteeViewer, err := NewViewer(*menteeProfile)
	require.NoError(t, err)

	return &testEnv{
		feed:   f,
		store:  st,
		svc:    NewService(st, logger.NewNop()),
		mentor: mentorViewer.(Mentor),
		mentee: menteeViewer.(Mentee),
	}
}

// conversation creates a conversation between the env's pair.
func (e *testEnv) conversation(t *testing.T) string {
	t.Helper()
	resp, err := e.svc.CreateConversation(context.Background(), e.mentee, e.mentor.ID())
	require.NoError(t, err)
	return resp.ConversationID
}

// waitForUpdate reads updates until one of the wanted kind arrives.
func waitForUpdate(t *testing.T, s *Session, kind UpdateKind) Update {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case u, ok := <-s.Updates():
			if !ok {
				t.Fatalf("updates channel closed while waiting for %q", kind)
			}
			if u.Kind == kind {
				return u
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q update", kind)
		}
	}
}
