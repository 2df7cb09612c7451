package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorlink/mentorship-platform/internal/chat"
	"github.com/mentorlink/mentorship-platform/internal/feed"
	"github.com/mentorlink/mentorship-platform/internal/middleware"
	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/internal/store"
	"github.com/mentorlink/mentorship-platform/internal/store/memory"
	"github.com/mentorlink/mentorship-platform/pkg/logger"
)

type apiFixture struct {
	router *chi.Mux
	store  *store.Store
	mentor *model.Profile
	mentee *model.Profile
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()

	st := memory.New(feed.NewMemoryFeed())
	mentor := &model.Profile{FullName: "Ada Mentor", Role: model.RoleMentor}
	require.NoError(t, st.Profiles.Insert(ctx, mentor))
	mentee := &model.Profile{FullName: "Ben Mentee", Role: model.RoleMentee}
	require.NoError(t, st.Profiles.Insert(ctx, mentee))

	log := logger.NewNop()
	svc := chat.NewService(st, log)
	conversations := NewConversationHandler(svc, log)
	messages := NewMessageHandler(svc, log)

	r := chi.NewRouter()
	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", conversations.List)
		r.Post("/", conversations.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/messages", messages.List)
			r.Post("/messages", messages.Send)
		})
	})

	return &apiFixture{router: r, store: st, mentor: mentor, mentee: mentee}
}

// do performs a request as the given authenticated profile.
func (f *apiFixture) do(t *testing.T, p *model.Profile, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.ProfileIDKey, p.ID)
	ctx = context.WithValue(ctx, middleware.RoleKey, p.Role)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestCreateConversationEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	body := `{"mentor_id":"` + f.mentor.ID + `"}`

	rec := f.do(t, f.mentee, http.MethodPost, "/conversations", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp model.CreateConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Created)
	assert.NotEmpty(t, resp.ConversationID)

	// Creating again for the same pair returns the existing thread with 200.
	rec = f.do(t, f.mentee, http.MethodPost, "/conversations", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var again model.CreateConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.False(t, again.Created)
	assert.Equal(t, resp.ConversationID, again.ConversationID)
}

func TestCreateConversationMentorForbidden(t *testing.T) {
	f := newAPIFixture(t)
	body := `{"mentor_id":"` + f.mentee.ID + `"}`

	rec := f.do(t, f.mentor, http.MethodPost, "/conversations", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateConversationBadMentorID(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, f.mentee, http.MethodPost, "/conversations", `{"mentor_id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, f.mentee, http.MethodPost, "/conversations", `{broken`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListConversationsEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, f.mentee, http.MethodGet, "/conversations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.ListConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Total)

	f.do(t, f.mentee, http.MethodPost, "/conversations", `{"mentor_id":"`+f.mentor.ID+`"}`)

	rec = f.do(t, f.mentee, http.MethodGet, "/conversations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Ada Mentor", resp.Conversations[0].Counterpart.FullName)
}

func TestSendAndListMessagesEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, f.mentee, http.MethodPost, "/conversations", `{"mentor_id":"`+f.mentor.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.CreateConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = f.do(t, f.mentee, http.MethodPost, "/conversations/"+created.ConversationID+"/messages", `{"content":"hello"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var msg model.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, f.mentee.ID, msg.SenderID)

	rec = f.do(t, f.mentor, http.MethodGet, "/conversations/"+created.ConversationID+"/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list model.ListMessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Messages, 1)
	assert.Equal(t, "hello", list.Messages[0].Content)
	assert.False(t, list.Messages[0].FromViewer)
}

func TestSendMessageValidation(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, f.mentee, http.MethodPost, "/conversations", `{"mentor_id":"`+f.mentor.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.CreateConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	target := "/conversations/" + created.ConversationID + "/messages"

	// Rejected at the validation layer.
	rec = f.do(t, f.mentee, http.MethodPost, target, `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Whitespace passes length validation but is rejected by the chat core.
	rec = f.do(t, f.mentee, http.MethodPost, target, `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessagesUnknownConversation(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, f.mentee, http.MethodGet, "/conversations/"+uuid.NewString()+"/messages", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, f.mentee, http.MethodGet, "/conversations/not-an-id/messages", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessagesNonParticipantForbidden(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	rec := f.do(t, f.mentee, http.MethodPost, "/conversations", `{"mentor_id":"`+f.mentor.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.CreateConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	outsider := &model.Profile{FullName: "Eve Outsider", Role: model.RoleMentee}
	require.NoError(t, f.store.Profiles.Insert(ctx, outsider))

	rec = f.do(t, outsider, http.MethodGet, "/conversations/"+created.ConversationID+"/messages", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
