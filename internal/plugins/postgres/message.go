package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"chatsync/internal/core/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

/*
	CREATE TABLE messages (
		id                 UUID PRIMARY KEY,
		conversation_id    TEXT NOT NULL REFERENCES conversations(id),
		seq                BIGINT NOT NULL,
		sender_id          TEXT NOT NULL,
		sender_name        TEXT NOT NULL DEFAULT '',
		sender_avatar_url  TEXT NOT NULL DEFAULT '',
		kind               TEXT NOT NULL,
		body               TEXT NOT NULL DEFAULT '',
		media_url          TEXT NOT NULL DEFAULT '',
		caption            TEXT NOT NULL DEFAULT '',
		read               BOOLEAN NOT NULL DEFAULT FALSE,
		sent_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (conversation_id, seq)
	);
*/

const messageColumns = `id, conversation_id, seq, sender_id, sender_name, sender_avatar_url,
		kind, body, media_url, caption, read, sent_at`

// SaveWithSequence increments the conversation sequence and inserts the
// record under the fresh seq. Run inside a transaction so the counter
// and the row commit together; sent_at is server-assigned here.
func (r *MessageRepo) SaveWithSequence(ctx context.Context, msg *domain.Message) (int64, error) {
	if msg.ConversationID == "" {
		return 0, domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	var seq int64
	err := exec.QueryRowContext(ctx, `
		UPDATE conversation_sequences
		SET last_seq = last_seq + 1
		WHERE conversation_id = $1
		RETURNING last_seq
	`, msg.ConversationID).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No sequence row = conversation was never created
			return 0, domain.ErrSequenceNotInitialized
		}
		return 0, err
	}
	err = exec.QueryRowContext(ctx, `
		INSERT INTO messages (
			id, conversation_id, seq, sender_id, sender_name, sender_avatar_url,
			kind, body, media_url, caption
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING sent_at
	`,
		msg.ID,
		msg.ConversationID,
		seq,
		msg.SenderID,
		msg.SenderName,
		msg.SenderAvatar,
		msg.Kind,
		msg.Body,
		msg.MediaURL,
		msg.Caption,
	).Scan(&msg.SentAt)
	if err != nil {
		return 0, err
	}
	msg.Seq = seq
	return seq, nil
}

func (r *MessageRepo) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if conversationID == "" {
		return nil, domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1
		ORDER BY seq ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := scanMessage(rows.Scan, &m); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *MessageRepo) GetMessage(ctx context.Context, conversationID string, id uuid.UUID) (*domain.Message, error) {
	if conversationID == "" {
		return nil, domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1 AND id = $2
	`, conversationID, id)
	var m domain.Message
	if err := scanMessage(row.Scan, &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) UpdateText(ctx context.Context, conversationID string, id uuid.UUID, text string) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE messages SET body = $3
		WHERE conversation_id = $1 AND id = $2
	`, conversationID, id, text)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepo) Delete(ctx context.Context, conversationID string, id uuid.UUID) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		DELETE FROM messages
		WHERE conversation_id = $1 AND id = $2
	`, conversationID, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

// MarkRead flips unread records from the other participants up to
// upToSeq. Already-read rows are untouched, so repeat calls are no-ops.
func (r *MessageRepo) MarkRead(ctx context.Context, conversationID, readerID string, upToSeq int64) (int64, error) {
	if conversationID == "" {
		return 0, domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE messages SET read = TRUE
		WHERE conversation_id = $1
		  AND sender_id <> $2
		  AND seq <= $3
		  AND read = FALSE
	`, conversationID, readerID, upToSeq)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *MessageRepo) LastMessage(ctx context.Context, conversationID string) (*domain.Message, error) {
	if conversationID == "" {
		return nil, domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, conversationID)
	var m domain.Message
	if err := scanMessage(row.Scan, &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) HasUnread(ctx context.Context, conversationID, readerID string) (bool, error) {
	if conversationID == "" {
		return false, domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	var unread bool
	err := exec.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM messages
			WHERE conversation_id = $1 AND sender_id <> $2 AND read = FALSE
		)
	`, conversationID, readerID).Scan(&unread)
	if err != nil {
		return false, err
	}
	return unread, nil
}

func scanMessage(scan func(...any) error, m *domain.Message) error {
	return scan(
		&m.ID,
		&m.ConversationID,
		&m.Seq,
		&m.SenderID,
		&m.SenderName,
		&m.SenderAvatar,
		&m.Kind,
		&m.Body,
		&m.MediaURL,
		&m.Caption,
		&m.Read,
		&m.SentAt,
	)
}
