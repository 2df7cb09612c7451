package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/pkg/logger"
)

func newTestSession(t *testing.T, env *testEnv, viewer Viewer) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), viewer, env.svc, env.feed, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSessionInitialLoad(t *testing.T) {
	env := newTestEnv(t)
	convID := env.conversation(t)

	s := newTestSession(t, env, env.mentee)

	assert.False(t, s.Loading())
	assert.NoError(t, s.Err())

	list := s.Conversations()
	require.Len(t, list, 1)
	assert.Equal(t, convID, list[0].ID)
	assert.Empty(t, s.Messages())
}

func TestSessionFeedAppendsToActiveConversation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	convID := env.conversation(t)

	s := newTestSession(t, env, env.mentee)
	require.NoError(t, s.SelectConversation(ctx, convID))

	// The mentor writes from their own device; the row reaches the mentee's
	// session through the change feed alone.
	_, err := env.svc.Send(ctx, env.mentor, convID, "Hello")
	require.NoError(t, err)

	appended := waitForUpdate(t, s, UpdateMessageAppended)
	require.NotNil(t, appended.Message)
	assert.Equal(t, "Hello", appended.Message.Content)
	assert.False(t, appended.Message.FromViewer)
	assert.Equal(t, "Ada Mentor", appended.Message.Sender.FullName)

	refreshed := waitForUpdate(t, s, UpdateConversations)
	require.Len(t, refreshed.Conversations, 1)
	require.NotNil(t, refreshed.Conversations[0].LastMessage)
	assert.Equal(t, "Hello", refreshed.Conversations[0].LastMessage.Content)

	history := s.Messages()
	require.Len(t, history, 1)
	assert.Equal(t, "Hello", history[0].Content)
}

func TestSessionFeedReordersConversationList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	firstID := env.conversation(t)
	mentorB, secondID := secondConversation(t, env)

	s := newTestSession(t, env, env.mentee)
	require.NoError(t, s.SelectConversation(ctx, firstID))

	// Traffic in the non-active conversation updates the list but must not
	// touch the open thread.
	_, err := env.svc.Send(ctx, mentorB, secondID, "other thread")
	require.NoError(t, err)

	deadline := time.After(2 * time.Second)
	for {
		var u Update
		select {
		case u = <-s.Updates():
		case <-deadline:
			t.Fatal("timed out waiting for reordered conversation list")
		}
		require.NotEqual(t, UpdateMessageAppended, u.Kind,
			"inactive-conversation traffic must not append to the open thread")
		if u.Kind == UpdateConversations && len(u.Conversations) == 2 &&
			u.Conversations[0].LastMessage != nil && u.Conversations[0].LastMessage.Content == "other thread" {
			assert.Equal(t, secondID, u.Conversations[0].ID)
			assert.Equal(t, 1, u.Conversations[0].UnreadCount)
			break
		}
	}

	assert.Empty(t, s.Messages())
}

func TestSessionCreateConversationSelectsIt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s := newTestSession(t, env, env.mentee)
	assert.Empty(t, s.Conversations())

	id, err := s.CreateConversation(ctx, env.mentor.ID())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Equal(t, id, s.messages.ActiveConversation())
	list := s.Conversations()
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	// The pair already has a thread now; creating again reuses it.
	again, err := s.CreateConversation(ctx, env.mentor.ID())
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestSessionIgnoresOtherViewersConversations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ownID := env.conversation(t)

	s := newTestSession(t, env, env.mentee)

	// Another mentee starts a thread with the mentor. The insert event
	// reaches every session; this viewer's list must stay their own.
	other := &model.Profile{FullName: "Cam Mentee", Role: model.RoleMentee}
	require.NoError(t, env.store.Profiles.Insert(ctx, other))
	otherViewer, err := NewViewer(*other)
	require.NoError(t, err)
	_, err = env.svc.CreateConversation(ctx, otherViewer.(Mentee), env.mentor.ID())
	require.NoError(t, err)

	refreshed := waitForUpdate(t, s, UpdateConversations)
	require.Len(t, refreshed.Conversations, 1)
	assert.Equal(t, ownID, refreshed.Conversations[0].ID)
}

func TestSessionCloseStopsDelivery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	convID := env.conversation(t)

	s := newTestSession(t, env, env.mentee)
	require.NoError(t, s.SelectConversation(ctx, convID))
	for len(s.Updates()) > 0 {
		<-s.Updates()
	}

	s.Close()
	s.Close() // idempotent

	_, err := env.svc.Send(ctx, env.mentor, convID, "after close")
	require.NoError(t, err)

	select {
	case u := <-s.Updates():
		t.Fatalf("unexpected %q update after close", u.Kind)
	case <-time.After(200 * time.Millisecond):
	}
	assert.Empty(t, s.Messages())
}
