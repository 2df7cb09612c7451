package realtime

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mentorlink/mentorship-platform/internal/chat"
	"github.com/mentorlink/mentorship-platform/internal/feed"
	"github.com/mentorlink/mentorship-platform/internal/middleware"
	"github.com/mentorlink/mentorship-platform/internal/store"
	"github.com/mentorlink/mentorship-platform/pkg/logger"
	"github.com/mentorlink/mentorship-platform/pkg/metrics"
)

// clientFrame is an inbound websocket command.
type clientFrame struct {
	Op             string `json:"op"` // select | send | create
	ConversationID string `json:"conversation_id,omitempty"`
	Content        string `json:"content,omitempty"`
	MentorID       string `json:"mentor_id,omitempty"`
}

// errorFrame is pushed when a command fails; the session itself stays up.
type errorFrame struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Gateway upgrades authenticated requests to websockets and owns one chat
// session per connection: session updates stream out, client commands come
// in.
type Gateway struct {
	svc      *chat.Service
	feed     feed.Feed
	profiles store.ProfileRepo
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewGateway creates a websocket gateway.
func NewGateway(svc *chat.Service, f feed.Feed, profiles store.ProfileRepo, log *logger.Logger) *Gateway {
	return &Gateway{
		svc:      svc,
		feed:     f,
		profiles: profiles,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /api/v1/ws.
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())

	p, err := g.profiles.Get(r.Context(), profileID)
	if err != nil {
		http.Error(w, `{"error":"profile not found"}`, http.StatusUnauthorized)
		return
	}
	viewer, err := chat.NewViewer(*p)
	if err != nil {
		http.Error(w, `{"error":"unknown viewer role"}`, http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := NewConnection(ws)
	conn.Start()

	session, err := chat.NewSession(r.Context(), viewer, g.svc, g.feed, g.log)
	if err != nil {
		g.log.Error("failed to start chat session", zap.Error(err))
		conn.Close(websocket.CloseInternalServerErr, "session start failed")
		return
	}

	metrics.IncrementWSConnections()
	defer metrics.DecrementWSConnections()
	defer session.Close()
	defer conn.Close(websocket.CloseNormalClosure, "bye")

	// Initial snapshot so the client renders without a round trip.
	g.push(conn, chat.Update{Kind: chat.UpdateConversations, Conversations: session.Conversations()})

	go g.forwardUpdates(session, conn)

	g.readLoop(r.Context(), session, conn)
}

// forwardUpdates streams session updates to the client until either side
// goes away.
func (g *Gateway) forwardUpdates(session *chat.Session, conn *Connection) {
	for {
		select {
		case <-conn.Closed():
			return
		case update, ok := <-session.Updates():
			if !ok {
				return
			}
			g.push(conn, update)
		}
	}
}

func (g *Gateway) readLoop(ctx context.Context, session *chat.Session, conn *Connection) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			g.pushError(conn, "malformed frame")
			continue
		}

		if err := g.handle(ctx, session, frame); err != nil {
			g.pushError(conn, err.Error())
		}
	}
}

func (g *Gateway) handle(ctx context.Context, session *chat.Session, frame clientFrame) error {
	switch frame.Op {
	case "select":
		if err := middleware.ValidateID(frame.ConversationID); err != nil {
			return err
		}
		return session.SelectConversation(ctx, frame.ConversationID)
	case "send":
		return session.Send(ctx, frame.Content)
	case "create":
		if err := middleware.ValidateID(frame.MentorID); err != nil {
			return err
		}
		_, err := session.CreateConversation(ctx, frame.MentorID)
		return err
	default:
		return errUnknownOp(frame.Op)
	}
}

type errUnknownOp string

func (e errUnknownOp) Error() string { return "unknown op " + string(e) }

func (g *Gateway) push(conn *Connection, update chat.Update) {
	data, err := json.Marshal(update)
	if err != nil {
		g.log.Error("failed to marshal update", zap.Error(err))
		return
	}
	_ = conn.Send(data)
}

func (g *Gateway) pushError(conn *Connection, msg string) {
	data, _ := json.Marshal(errorFrame{Kind: "error", Error: msg})
	_ = conn.Send(data)
}
