package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorlink/mentorship-platform/internal/feed"
	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/internal/store"
)

func TestConversationInsertAssignsAndPublishes(t *testing.T) {
	f := feed.NewMemoryFeed()
	st := New(f)
	ctx := context.Background()

	sub, err := f.Subscribe(ctx, feed.CollectionConversations)
	require.NoError(t, err)

	conv := &model.Conversation{MentorID: "mentor", MenteeID: "mentee"}
	require.NoError(t, st.Conversations.Insert(ctx, conv))

	assert.NotEmpty(t, conv.ID)
	assert.False(t, conv.CreatedAt.IsZero())
	assert.Equal(t, conv.CreatedAt, conv.LastMessageAt)

	select {
	case ev := <-sub.Events():
		var got model.Conversation
		require.NoError(t, ev.Decode(&got))
		assert.Equal(t, conv.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("no insert event published")
	}
}

func TestConversationListByParticipant(t *testing.T) {
	st := New(nil)
	ctx := context.Background()
	base := time.Now().UTC()

	older := &model.Conversation{MentorID: "m1", MenteeID: "me", LastMessageAt: base.Add(-time.Hour), CreatedAt: base.Add(-time.Hour)}
	newer := &model.Conversation{MentorID: "m2", MenteeID: "me", LastMessageAt: base, CreatedAt: base}
	foreign := &model.Conversation{MentorID: "m1", MenteeID: "someone-else"}
	for _, c := range []*model.Conversation{older, newer, foreign} {
		require.NoError(t, st.Conversations.Insert(ctx, c))
	}

	convs, err := st.Conversations.ListByParticipant(ctx, "me")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, newer.ID, convs[0].ID)
	assert.Equal(t, older.ID, convs[1].ID)

	_, err = st.Conversations.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConversationFindByPair(t *testing.T) {
	st := New(nil)
	ctx := context.Background()

	found, err := st.Conversations.FindByPair(ctx, "mentor", "mentee")
	require.NoError(t, err)
	assert.Nil(t, found)

	conv := &model.Conversation{MentorID: "mentor", MenteeID: "mentee"}
	require.NoError(t, st.Conversations.Insert(ctx, conv))

	found, err = st.Conversations.FindByPair(ctx, "mentor", "mentee")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, conv.ID, found.ID)

	// The pair is directional: swapping roles is a different pair.
	found, err = st.Conversations.FindByPair(ctx, "mentee", "mentor")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMessageInsertBumpsConversation(t *testing.T) {
	f := feed.NewMemoryFeed()
	st := New(f)
	ctx := context.Background()

	sub, err := f.Subscribe(ctx, feed.CollectionMessages)
	require.NoError(t, err)

	conv := &model.Conversation{MentorID: "mentor", MenteeID: "mentee", CreatedAt: time.Now().UTC().Add(-time.Hour)}
	require.NoError(t, st.Conversations.Insert(ctx, conv))

	msg := &model.Message{ConversationID: conv.ID, SenderID: "mentor", Content: "hi"}
	require.NoError(t, st.Messages.Insert(ctx, msg))

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, model.MessageTypeText, msg.Type)

	stored, err := st.Conversations.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.CreatedAt, stored.LastMessageAt)

	select {
	case ev := <-sub.Events():
		var got model.Message
		require.NoError(t, ev.Decode(&got))
		assert.Equal(t, msg.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("no insert event published")
	}
}

func TestMessageLatestAndUnread(t *testing.T) {
	st := New(nil)
	ctx := context.Background()

	conv := &model.Conversation{MentorID: "mentor", MenteeID: "mentee"}
	require.NoError(t, st.Conversations.Insert(ctx, conv))

	latest, err := st.Messages.Latest(ctx, conv.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Now().UTC()
	require.NoError(t, st.Messages.Insert(ctx, &model.Message{
		ConversationID: conv.ID, SenderID: "mentor", Content: "first", CreatedAt: base,
	}))
	require.NoError(t, st.Messages.Insert(ctx, &model.Message{
		ConversationID: conv.ID, SenderID: "mentor", Content: "second", CreatedAt: base.Add(time.Minute),
	}))
	require.NoError(t, st.Messages.Insert(ctx, &model.Message{
		ConversationID: conv.ID, SenderID: "mentee", Content: "reply", CreatedAt: base.Add(2 * time.Minute),
	}))

	latest, err = st.Messages.Latest(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "reply", latest.Content)

	// Unread is counted against the viewer: only the counterpart's rows.
	unread, err := st.Messages.CountUnread(ctx, conv.ID, "mentee")
	require.NoError(t, err)
	assert.Equal(t, 2, unread)
	unread, err = st.Messages.CountUnread(ctx, conv.ID, "mentor")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestMessageMarkReadSparesReaderOwnRows(t *testing.T) {
	st := New(nil)
	ctx := context.Background()

	conv := &model.Conversation{MentorID: "mentor", MenteeID: "mentee"}
	require.NoError(t, st.Conversations.Insert(ctx, conv))
	require.NoError(t, st.Messages.Insert(ctx, &model.Message{ConversationID: conv.ID, SenderID: "mentor", Content: "a"}))
	require.NoError(t, st.Messages.Insert(ctx, &model.Message{ConversationID: conv.ID, SenderID: "mentee", Content: "b"}))

	require.NoError(t, st.Messages.MarkRead(ctx, conv.ID, "mentee"))

	unread, err := st.Messages.CountUnread(ctx, conv.ID, "mentee")
	require.NoError(t, err)
	assert.Equal(t, 0, unread)

	// The mentee's own message is still unread from the mentor's side.
	unread, err = st.Messages.CountUnread(ctx, conv.ID, "mentor")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestMessageListOrdersOldestFirst(t *testing.T) {
	st := New(nil)
	ctx := context.Background()

	conv := &model.Conversation{MentorID: "mentor", MenteeID: "mentee"}
	require.NoError(t, st.Conversations.Insert(ctx, conv))

	base := time.Now().UTC()
	for i, content := range []string{"third", "first", "second"} {
		offsets := []time.Duration{2 * time.Minute, 0, time.Minute}
		require.NoError(t, st.Messages.Insert(ctx, &model.Message{
			ConversationID: conv.ID, SenderID: "mentor", Content: content, CreatedAt: base.Add(offsets[i]),
		}))
	}

	msgs, err := st.Messages.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "third", msgs[2].Content)
}

func TestProfileUpdatePartial(t *testing.T) {
	st := New(nil)
	ctx := context.Background()

	p := &model.Profile{FullName: "Ada", AvatarURL: "/avatars/ada.png", Role: model.RoleMentor}
	require.NoError(t, st.Profiles.Insert(ctx, p))

	update := &model.Profile{ID: p.ID, FullName: "Ada Lovelace"}
	require.NoError(t, st.Profiles.Update(ctx, update))

	stored, err := st.Profiles.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", stored.FullName)
	assert.Equal(t, "/avatars/ada.png", stored.AvatarURL, "empty fields leave existing values alone")

	err = st.Profiles.Update(ctx, &model.Profile{ID: "missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProfileListMentors(t *testing.T) {
	st := New(nil)
	ctx := context.Background()

	require.NoError(t, st.Profiles.Insert(ctx, &model.Profile{FullName: "Zoe", Role: model.RoleMentor}))
	require.NoError(t, st.Profiles.Insert(ctx, &model.Profile{FullName: "Ada", Role: model.RoleMentor}))
	require.NoError(t, st.Profiles.Insert(ctx, &model.Profile{FullName: "Ben", Role: model.RoleMentee}))

	mentors, err := st.Profiles.ListMentors(ctx)
	require.NoError(t, err)
	require.Len(t, mentors, 2)
	assert.Equal(t, "Ada", mentors[0].FullName)
	assert.Equal(t, "Zoe", mentors[1].FullName)
}

func TestMentorDetailsUpsert(t *testing.T) {
	st := New(nil)
	ctx := context.Background()

	details, err := st.Mentors.Details(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, details)

	require.NoError(t, st.Mentors.Upsert(ctx, &model.MentorDetails{ProfileID: "p1", Title: "Engineer", Company: "Acme"}))
	require.NoError(t, st.Mentors.Upsert(ctx, &model.MentorDetails{ProfileID: "p1", Title: "Staff Engineer", Company: "Acme"}))

	details, err = st.Mentors.Details(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "Staff Engineer", details.Title)
}
