package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/castlemere/estately/internal/model"
)

func scanChatRow(row interface{ Scan(...any) error }) (model.Chat, error) {
	var (
		id        pgtype.UUID
		userIDs   []pgtype.UUID
		seenBy    []pgtype.UUID
		c         model.Chat
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &userIDs, &seenBy, &c.LastMessage, &createdAt); err != nil {
		return model.Chat{}, err
	}
	c.ID = uuid.UUID(id.Bytes)
	c.UserIDs = fromPgUUIDs(userIDs)
	c.SeenBy = fromPgUUIDs(seenBy)
	c.CreatedAt = createdAt.Time
	return c, nil
}

const chatColumns = `chat_id, user_ids, seen_by, last_message, created_at`

// CreateChat inserts a chat for the pair. Nobody has seen an empty chat yet.
func (q *Queries) CreateChat(ctx context.Context, userA, userB uuid.UUID) (model.Chat, error) {
	query := `
		INSERT INTO chats (chat_id, user_ids, seen_by, last_message)
		VALUES ($1, $2, '{}', '')
		RETURNING ` + chatColumns

	chat, err := scanChatRow(q.db.QueryRow(ctx, query, pgUUID(uuid.New()), pgUUIDs([]uuid.UUID{userA, userB})))
	if err != nil {
		return model.Chat{}, fmt.Errorf("store: create chat: %w", err)
	}
	return chat, nil
}

// GetChatForPair finds the existing chat between two users, regardless of
// participant order. Backs the idempotent create.
func (q *Queries) GetChatForPair(ctx context.Context, userA, userB uuid.UUID) (model.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE user_ids @> $1 AND cardinality(user_ids) = 2
		LIMIT 1`

	chat, err := scanChatRow(q.db.QueryRow(ctx, query, pgUUIDs([]uuid.UUID{userA, userB})))
	if err != nil {
		return model.Chat{}, wrapNotFound("store: get chat for pair", err)
	}
	return chat, nil
}

// GetChat loads one chat with its transcript, ordered by creation time. Only
// participants can see it.
func (q *Queries) GetChat(ctx context.Context, chatID, userID uuid.UUID) (model.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE chat_id = $1 AND $2 = ANY(user_ids)`

	chat, err := scanChatRow(q.db.QueryRow(ctx, query, pgUUID(chatID), pgUUID(userID)))
	if err != nil {
		return model.Chat{}, wrapNotFound("store: get chat", err)
	}

	messages, err := q.ListMessages(ctx, chatID)
	if err != nil {
		return model.Chat{}, err
	}
	chat.Messages = messages
	return chat, nil
}

// ListChatSummaries returns the user's chat list with the other participant's
// profile attached. Malformed records, a chat without exactly two
// participants or one referencing a deleted user, are filtered out rather
// than failing the request.
func (q *Queries) ListChatSummaries(ctx context.Context, userID uuid.UUID) ([]model.ChatSummary, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE $1 = ANY(user_ids)
		ORDER BY created_at DESC`

	rows, err := q.db.Query(ctx, query, pgUUID(userID))
	if err != nil {
		return nil, fmt.Errorf("store: list chats: %w", err)
	}
	defer rows.Close()

	var chats []model.Chat
	for rows.Next() {
		chat, err := scanChatRow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list chats: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list chats: %w", err)
	}

	summaries := make([]model.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		if len(chat.UserIDs) != 2 {
			continue
		}
		receiverID := chat.UserIDs[0]
		if receiverID == userID {
			receiverID = chat.UserIDs[1]
		}
		receiver, err := q.GetUserByID(ctx, pgUUID(receiverID))
		if err != nil {
			// Chat references a deleted user, skip it.
			continue
		}
		summaries = append(summaries, model.ChatSummary{
			ID:          chat.ID,
			Receiver:    receiver.Public(),
			LastMessage: chat.LastMessage,
			SeenBy:      chat.SeenBy,
		})
	}
	return summaries, nil
}

// MarkChatSeen adds userID to the chat's seen set. Additive union, idempotent:
// one participant's read never erases the other's receipt.
func (q *Queries) MarkChatSeen(ctx context.Context, chatID, userID uuid.UUID) error {
	const query = `
		UPDATE chats
		SET seen_by = array_append(seen_by, $2)
		WHERE chat_id = $1 AND NOT ($2 = ANY(seen_by))`

	if _, err := q.db.Exec(ctx, query, pgUUID(chatID), pgUUID(userID)); err != nil {
		return fmt.Errorf("store: mark chat seen: %w", err)
	}
	return nil
}

// CountUnseenChats counts the well-formed chats the user participates in but
// has not seen. This backs the notification badge on login/reconnect.
func (q *Queries) CountUnseenChats(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM chats
		WHERE $1 = ANY(user_ids)
		  AND NOT ($1 = ANY(seen_by))
		  AND cardinality(user_ids) = 2`

	var n int64
	if err := q.db.QueryRow(ctx, query, pgUUID(userID)).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count unseen chats: %w", err)
	}
	return n, nil
}

// CleanupChats bulk-deletes malformed chats (wrong participant count or a
// reference to a deleted user) together with their messages, and returns the
// removed chat ids.
func (q *Queries) CleanupChats(ctx context.Context) ([]uuid.UUID, error) {
	const findQuery = `
		SELECT chat_id
		FROM chats c
		WHERE cardinality(c.user_ids) <> 2
		   OR EXISTS (
			SELECT 1 FROM unnest(c.user_ids) AS uid
			WHERE NOT EXISTS (SELECT 1 FROM users u WHERE u.user_id = uid)
		   )`

	rows, err := q.db.Query(ctx, findQuery)
	if err != nil {
		return nil, fmt.Errorf("store: cleanup chats: %w", err)
	}
	defer rows.Close()

	var malformed []pgtype.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: cleanup chats: %w", err)
		}
		malformed = append(malformed, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: cleanup chats: %w", err)
	}
	if len(malformed) == 0 {
		return nil, nil
	}

	tx, err := q.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: cleanup chats: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE chat_id = ANY($1)`, malformed); err != nil {
		return nil, fmt.Errorf("store: cleanup chats: delete messages: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chats WHERE chat_id = ANY($1)`, malformed); err != nil {
		return nil, fmt.Errorf("store: cleanup chats: delete chats: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("store: cleanup chats: %w", err)
	}

	return fromPgUUIDs(malformed), nil
}
