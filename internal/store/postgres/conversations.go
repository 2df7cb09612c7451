package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentorlink/mentorship-platform/internal/feed"
	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/internal/store"
)

type conversationRepo struct {
	pool *pgxpool.Pool
	pub  feed.Publisher
}

func (r *conversationRepo) ListByParticipant(ctx context.Context, profileID string) ([]model.Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, mentor_id::text, mentee_id::text, created_at, last_message_at
		FROM conversations
		WHERE mentor_id = $1::uuid OR mentee_id = $1::uuid
		ORDER BY last_message_at DESC
	`, profileID)
	if err != nil {
		return nil, &store.FetchError{Collection: feed.CollectionConversations, Err: err}
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.MentorID, &c.MenteeID, &c.CreatedAt, &c.LastMessageAt); err != nil {
			return nil, &store.FetchError{Collection: feed.CollectionConversations, Err: err}
		}
		convs = append(convs, c)
	}
	if rows.Err() != nil {
		return nil, &store.FetchError{Collection: feed.CollectionConversations, Err: rows.Err()}
	}
	return convs, nil
}

func (r *conversationRepo) Get(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, mentor_id::text, mentee_id::text, created_at, last_message_at
		FROM conversations
		WHERE id = $1::uuid
	`, id).Scan(&c.ID, &c.MentorID, &c.MenteeID, &c.CreatedAt, &c.LastMessageAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, &store.FetchError{Collection: feed.CollectionConversations, Err: err}
	}
	return &c, nil
}

func (r *conversationRepo) FindByPair(ctx context.Context, mentorID, menteeID string) (*model.Conversation, error) {
	var c model.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, mentor_id::text, mentee_id::text, created_at, last_message_at
		FROM conversations
		WHERE mentor_id = $1::uuid AND mentee_id = $2::uuid
	`, mentorID, menteeID).Scan(&c.ID, &c.MentorID, &c.MenteeID, &c.CreatedAt, &c.LastMessageAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &store.FetchError{Collection: feed.CollectionConversations, Err: err}
	}
	return &c, nil
}

func (r *conversationRepo) Insert(ctx context.Context, conv *model.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.LastMessageAt.IsZero() {
		conv.LastMessageAt = conv.CreatedAt
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversations (id, mentor_id, mentee_id, created_at, last_message_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5)
	`, conv.ID, conv.MentorID, conv.MenteeID, conv.CreatedAt, conv.LastMessageAt)
	if err != nil {
		return &store.WriteError{Collection: feed.CollectionConversations, Err: err}
	}

	if r.pub != nil {
		if _, err := r.pub.Publish(ctx, feed.CollectionConversations, conv); err != nil {
			return &store.WriteError{Collection: feed.CollectionConversations, Err: err}
		}
	}
	return nil
}
