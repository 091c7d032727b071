package postgres

import (
	"context"
	"database/sql"
	"time"

	"chatsync/internal/core/domain"
)

type MembershipRepo struct {
	db *sql.DB
}

func NewMembershipRepo(db *sql.DB) *MembershipRepo {
	return &MembershipRepo{db: db}
}

/*
	CREATE TABLE connected_users (
		owner_uid       TEXT NOT NULL REFERENCES users(uid),
		peer_uid        TEXT NOT NULL REFERENCES users(uid),
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		last_message    TEXT NOT NULL DEFAULT '',
		last_message_at TIMESTAMPTZ,
		PRIMARY KEY (owner_uid, peer_uid)
	);
*/

// UpsertPeer writes one side of a direct link. Re-linking an existing
// pair keeps the last-message columns, so re-opening a chat is a no-op.
func (r *MembershipRepo) UpsertPeer(ctx context.Context, entry *domain.DirectPeerEntry) error {
	if entry.OwnerUID == "" || entry.PeerUID == "" {
		return domain.ErrInvalidUserID
	}
	if entry.ConversationID == "" {
		return domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO connected_users (owner_uid, peer_uid, conversation_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_uid, peer_uid) DO NOTHING
	`, entry.OwnerUID, entry.PeerUID, entry.ConversationID)
	return err
}

func (r *MembershipRepo) RefreshLastMessage(ctx context.Context, ownerUID, peerUID, preview string, at time.Time) error {
	if ownerUID == "" || peerUID == "" {
		return domain.ErrInvalidUserID
	}
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE connected_users
		SET last_message = $3, last_message_at = $4
		WHERE owner_uid = $1 AND peer_uid = $2
	`, ownerUID, peerUID, preview, at)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *MembershipRepo) ListPeers(ctx context.Context, ownerUID string) ([]domain.DirectPeerEntry, error) {
	if ownerUID == "" {
		return nil, domain.ErrInvalidUserID
	}
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT owner_uid, peer_uid, conversation_id, last_message, last_message_at
		FROM connected_users
		WHERE owner_uid = $1
		ORDER BY last_message_at DESC NULLS LAST
	`, ownerUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []domain.DirectPeerEntry
	for rows.Next() {
		var e domain.DirectPeerEntry
		var at sql.NullTime
		if err := rows.Scan(&e.OwnerUID, &e.PeerUID, &e.ConversationID, &e.LastMessage, &at); err != nil {
			return nil, err
		}
		if at.Valid {
			e.LastMessageAt = at.Time
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
