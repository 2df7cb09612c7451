package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentorlink/mentorship-platform/internal/feed"
	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/internal/store"
)

type messageRepo struct {
	pool *pgxpool.Pool
	pub  feed.Publisher
}

const messageColumns = `id::text, conversation_id::text, sender_id::text, content, message_type, read_by_recipient, created_at`

func scanMessage(row pgx.Row) (*model.Message, error) {
	var m model.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Type, &m.ReadByRecipient, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *messageRepo) ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM messages
		WHERE conversation_id = $1::uuid
		ORDER BY created_at ASC
	`, messageColumns), conversationID)
	if err != nil {
		return nil, &store.FetchError{Collection: feed.CollectionMessages, Err: err}
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, &store.FetchError{Collection: feed.CollectionMessages, Err: err}
		}
		msgs = append(msgs, *m)
	}
	if rows.Err() != nil {
		return nil, &store.FetchError{Collection: feed.CollectionMessages, Err: rows.Err()}
	}
	return msgs, nil
}

func (r *messageRepo) Latest(ctx context.Context, conversationID string) (*model.Message, error) {
	m, err := scanMessage(r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM messages
		WHERE conversation_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT 1
	`, messageColumns), conversationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &store.FetchError{Collection: feed.CollectionMessages, Err: err}
	}
	return m, nil
}

func (r *messageRepo) CountUnread(ctx context.Context, conversationID, viewerID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1::uuid
		  AND sender_id <> $2::uuid
		  AND NOT read_by_recipient
	`, conversationID, viewerID).Scan(&count)
	if err != nil {
		return 0, &store.FetchError{Collection: feed.CollectionMessages, Err: err}
	}
	return count, nil
}

func (r *messageRepo) Insert(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.Must(uuid.NewV7()).String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Type == "" {
		msg.Type = model.MessageTypeText
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &store.WriteError{Collection: feed.CollectionMessages, Err: err}
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, message_type, read_by_recipient, created_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7)
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.Type, msg.ReadByRecipient, msg.CreatedAt)
	if err != nil {
		return &store.WriteError{Collection: feed.CollectionMessages, Err: err}
	}

	_, err = tx.Exec(ctx, `
		UPDATE conversations SET last_message_at = $2 WHERE id = $1::uuid
	`, msg.ConversationID, msg.CreatedAt)
	if err != nil {
		return &store.WriteError{Collection: feed.CollectionMessages, Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &store.WriteError{Collection: feed.CollectionMessages, Err: err}
	}

	if r.pub != nil {
		if _, err := r.pub.Publish(ctx, feed.CollectionMessages, msg); err != nil {
			return &store.WriteError{Collection: feed.CollectionMessages, Err: err}
		}
	}
	return nil
}

func (r *messageRepo) MarkRead(ctx context.Context, conversationID, readerID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE messages SET read_by_recipient = TRUE
		WHERE conversation_id = $1::uuid
		  AND sender_id <> $2::uuid
		  AND NOT read_by_recipient
	`, conversationID, readerID)
	if err != nil {
		return &store.WriteError{Collection: feed.CollectionMessages, Err: err}
	}
	return nil
}
