package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/core/domain"
)

func TestUpsertPeer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMembershipRepo(db)

	mock.ExpectExec("INSERT INTO connected_users").
		WithArgs("alice", "bob", "alice_bob").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpsertPeer(context.Background(), &domain.DirectPeerEntry{
		OwnerUID:       "alice",
		PeerUID:        "bob",
		ConversationID: "alice_bob",
	})
	require.NoError(t, err)

	// Conflict path: zero rows affected is still success
	mock.ExpectExec("INSERT INTO connected_users").
		WithArgs("alice", "bob", "alice_bob").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpsertPeer(context.Background(), &domain.DirectPeerEntry{
		OwnerUID:       "alice",
		PeerUID:        "bob",
		ConversationID: "alice_bob",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPeerValidation(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMembershipRepo(db)

	err = repo.UpsertPeer(context.Background(), &domain.DirectPeerEntry{PeerUID: "bob", ConversationID: "c"})
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)

	err = repo.UpsertPeer(context.Background(), &domain.DirectPeerEntry{OwnerUID: "alice", PeerUID: "bob"})
	assert.ErrorIs(t, err, domain.ErrInvalidConversationID)
}

func TestRefreshLastMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMembershipRepo(db)

	at := time.Now()
	mock.ExpectExec("UPDATE connected_users").
		WithArgs("alice", "bob", "see you", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RefreshLastMessage(context.Background(), "alice", "bob", "see you", at))

	mock.ExpectExec("UPDATE connected_users").
		WithArgs("alice", "ghost", "hi", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.RefreshLastMessage(context.Background(), "alice", "ghost", "hi", at)
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPeers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMembershipRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"owner_uid", "peer_uid", "conversation_id", "last_message", "last_message_at"}).
		AddRow("alice", "carol", "alice_carol", "ok", now).
		AddRow("alice", "bob", "alice_bob", "", nil)
	mock.ExpectQuery("SELECT (.+) FROM connected_users").
		WithArgs("alice").
		WillReturnRows(rows)

	entries, err := repo.ListPeers(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "carol", entries[0].PeerUID)
	assert.Equal(t, now, entries[0].LastMessageAt)
	assert.True(t, entries[1].LastMessageAt.IsZero(), "never-messaged link keeps zero time")
	assert.NoError(t, mock.ExpectationsWereMet())
}
