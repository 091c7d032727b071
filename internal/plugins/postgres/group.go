package postgres

import (
	"context"
	"database/sql"
	"errors"

	"chatsync/internal/core/domain"
)

type GroupRepo struct {
	db *sql.DB
}

func NewGroupRepo(db *sql.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

/*
	CREATE TABLE groups (
		conversation_id TEXT PRIMARY KEY REFERENCES conversations(id),
		group_name      TEXT NOT NULL,
		admin_uid       TEXT NOT NULL REFERENCES users(uid),
		avatar_url      TEXT NOT NULL DEFAULT ''
	);

	-- One relation serves both directions: a group's member list and
	-- each user's "connected groups" reverse index.
	CREATE TABLE group_members (
		conversation_id TEXT NOT NULL REFERENCES groups(conversation_id),
		member_uid      TEXT NOT NULL REFERENCES users(uid),
		PRIMARY KEY (conversation_id, member_uid)
	);
*/

func (r *GroupRepo) CreateGroup(ctx context.Context, g *domain.Group) error {
	if g.ConversationID == "" {
		return domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO groups (conversation_id, group_name, admin_uid, avatar_url)
		VALUES ($1, $2, $3, $4)
	`, g.ConversationID, g.Name, g.AdminUID, g.AvatarURL)
	return err
}

func (r *GroupRepo) AddMember(ctx context.Context, conversationID, memberUID string) error {
	if memberUID == "" {
		return domain.ErrInvalidUserID
	}
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO group_members (conversation_id, member_uid)
		VALUES ($1, $2)
		ON CONFLICT (conversation_id, member_uid) DO NOTHING
	`, conversationID, memberUID)
	return err
}

func (r *GroupRepo) GetGroup(ctx context.Context, conversationID string) (*domain.Group, error) {
	if conversationID == "" {
		return nil, domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	g := &domain.Group{ConversationID: conversationID}
	err := exec.QueryRowContext(ctx, `
		SELECT group_name, admin_uid, avatar_url
		FROM groups WHERE conversation_id = $1
	`, conversationID).Scan(&g.Name, &g.AdminUID, &g.AvatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	rows, err := exec.QueryContext(ctx, `
		SELECT member_uid FROM group_members
		WHERE conversation_id = $1
		ORDER BY member_uid ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		g.MemberUIDs = append(g.MemberUIDs, uid)
	}
	return g, rows.Err()
}

func (r *GroupRepo) ListGroups(ctx context.Context, memberUID string) ([]domain.Group, error) {
	if memberUID == "" {
		return nil, domain.ErrInvalidUserID
	}
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT g.conversation_id, g.group_name, g.admin_uid, g.avatar_url
		FROM groups g
		JOIN group_members gm ON gm.conversation_id = g.conversation_id
		WHERE gm.member_uid = $1
		ORDER BY g.group_name ASC
	`, memberUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ConversationID, &g.Name, &g.AdminUID, &g.AvatarURL); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *GroupRepo) IsMember(ctx context.Context, conversationID, uid string) (bool, error) {
	exec := GetExecutor(ctx, r.db)
	var member bool
	err := exec.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM group_members
			WHERE conversation_id = $1 AND member_uid = $2
		)
	`, conversationID, uid).Scan(&member)
	return member, err
}
