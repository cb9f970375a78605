package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/castlemere/estately/internal/model"
)

type CreateMessageParams struct {
	ChatID    pgtype.UUID
	UserID    pgtype.UUID
	Text      string
	CreatedAt pgtype.Timestamptz
}

// CreateMessage persists a message and, in the same transaction, updates the
// chat's preview and resets seen_by to just the sender: everyone else has a
// new latest state they have not viewed. The sender must be a participant.
func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) (model.Message, error) {
	tx, err := q.db.Begin(ctx)
	if err != nil {
		return model.Message{}, fmt.Errorf("store: create message: %w", err)
	}
	defer tx.Rollback(ctx)

	const guardQuery = `
		SELECT EXISTS (
			SELECT 1 FROM chats
			WHERE chat_id = $1 AND $2 = ANY(user_ids)
		)`
	var participant bool
	if err := tx.QueryRow(ctx, guardQuery, arg.ChatID, arg.UserID).Scan(&participant); err != nil {
		return model.Message{}, fmt.Errorf("store: create message: %w", err)
	}
	if !participant {
		return model.Message{}, fmt.Errorf("store: create message: %w", ErrNotFound)
	}

	const insertQuery = `
		INSERT INTO messages (message_id, chat_id, user_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING message_id, chat_id, user_id, text, created_at`

	var (
		id, chatID, userID pgtype.UUID
		msg                model.Message
		createdAt          pgtype.Timestamptz
	)
	err = tx.QueryRow(ctx, insertQuery, pgUUID(uuid.New()), arg.ChatID, arg.UserID, arg.Text, arg.CreatedAt).
		Scan(&id, &chatID, &userID, &msg.Text, &createdAt)
	if err != nil {
		return model.Message{}, fmt.Errorf("store: create message: %w", err)
	}

	const touchQuery = `
		UPDATE chats
		SET last_message = $2, seen_by = ARRAY[$3]::uuid[]
		WHERE chat_id = $1`
	if _, err := tx.Exec(ctx, touchQuery, arg.ChatID, arg.Text, arg.UserID); err != nil {
		return model.Message{}, fmt.Errorf("store: create message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Message{}, fmt.Errorf("store: create message: %w", err)
	}

	msg.ID = uuid.UUID(id.Bytes)
	msg.ChatID = uuid.UUID(chatID.Bytes)
	msg.UserID = uuid.UUID(userID.Bytes)
	msg.CreatedAt = createdAt.Time
	return msg, nil
}

// ListMessages returns a chat's transcript ordered by creation time.
func (q *Queries) ListMessages(ctx context.Context, chatID uuid.UUID) ([]model.Message, error) {
	const query = `
		SELECT message_id, chat_id, user_id, text, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC`

	rows, err := q.db.Query(ctx, query, pgUUID(chatID))
	if err != nil {
		return nil, fmt.Errorf("store: list messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var (
			id, cID, uID pgtype.UUID
			msg          model.Message
			createdAt    pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &cID, &uID, &msg.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("store: list messages: %w", err)
		}
		msg.ID = uuid.UUID(id.Bytes)
		msg.ChatID = uuid.UUID(cID.Bytes)
		msg.UserID = uuid.UUID(uID.Bytes)
		msg.CreatedAt = createdAt.Time
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list messages: %w", err)
	}
	return messages, nil
}
