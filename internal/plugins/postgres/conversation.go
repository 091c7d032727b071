package postgres

import (
	"context"
	"database/sql"
	"errors"

	"chatsync/internal/core/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

/*
	CREATE TABLE conversations (
		id          TEXT PRIMARY KEY,
		kind        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE conversation_sequences (
		conversation_id TEXT PRIMARY KEY REFERENCES conversations(id),
		last_seq        BIGINT NOT NULL DEFAULT 0
	);
*/

// CreateConversation is idempotent: re-opening an existing chat is a
// no-op that returns the stored record. The sequence row is initialized
// alongside so the first append finds it.
func (r *ConversationRepo) CreateConversation(ctx context.Context, id string, kind domain.ConversationKind) (*domain.Conversation, error) {
	if id == "" {
		return nil, domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	conversation := &domain.Conversation{ID: id, Kind: kind}
	err := exec.QueryRowContext(ctx, `
		INSERT INTO conversations (id, kind)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING created_at
	`, id, kind).Scan(&conversation.CreatedAt)
	if err != nil {
		return nil, err
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO conversation_sequences (conversation_id, last_seq)
		VALUES ($1, 0)
		ON CONFLICT (conversation_id) DO NOTHING
	`, id)
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

func (r *ConversationRepo) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	if id == "" {
		return nil, domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	conversation := &domain.Conversation{ID: id}
	err := exec.QueryRowContext(ctx, `
		SELECT kind, created_at FROM conversations WHERE id = $1
	`, id).Scan(&conversation.Kind, &conversation.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return conversation, nil
}
