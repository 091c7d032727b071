package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/core/domain"
)

func TestSaveWithSequence(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMessageRepo(db)

	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: "alice_bob",
		SenderID:       "alice",
		Kind:           domain.KindText,
		Body:           "hello",
	}
	sentAt := time.Now()

	mock.ExpectQuery("UPDATE conversation_sequences").
		WithArgs("alice_bob").
		WillReturnRows(sqlmock.NewRows([]string{"last_seq"}).AddRow(int64(7)))
	mock.ExpectQuery("INSERT INTO messages").
		WithArgs(msg.ID, "alice_bob", int64(7), "alice", "", "", string(domain.KindText), "hello", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"sent_at"}).AddRow(sentAt))

	seq, err := repo.SaveWithSequence(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
	assert.Equal(t, int64(7), msg.Seq)
	assert.Equal(t, sentAt, msg.SentAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveWithSequenceUninitialized(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMessageRepo(db)

	mock.ExpectQuery("UPDATE conversation_sequences").
		WithArgs("ghost_room").
		WillReturnRows(sqlmock.NewRows([]string{"last_seq"}))

	_, err = repo.SaveWithSequence(context.Background(), &domain.Message{
		ID:             uuid.New(),
		ConversationID: "ghost_room",
		SenderID:       "alice",
		Kind:           domain.KindText,
		Body:           "hello",
	})
	assert.ErrorIs(t, err, domain.ErrSequenceNotInitialized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRead(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMessageRepo(db)

	mock.ExpectExec("UPDATE messages SET read = TRUE").
		WithArgs("alice_bob", "bob", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	flipped, err := repo.MarkRead(context.Background(), "alice_bob", "bob", 9)
	require.NoError(t, err)
	assert.Equal(t, int64(3), flipped)

	// Repeat call matches nothing
	mock.ExpectExec("UPDATE messages SET read = TRUE").
		WithArgs("alice_bob", "bob", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	flipped, err = repo.MarkRead(context.Background(), "alice_bob", "bob", 9)
	require.NoError(t, err)
	assert.Zero(t, flipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTextMissingRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMessageRepo(db)

	id := uuid.New()
	mock.ExpectExec("UPDATE messages SET body").
		WithArgs("alice_bob", id, "new text").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateText(context.Background(), "alice_bob", id, "new text")
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMessagesOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMessageRepo(db)

	cols := []string{"id", "conversation_id", "seq", "sender_id", "sender_name", "sender_avatar_url",
		"kind", "body", "media_url", "caption", "read", "sent_at"}
	now := time.Now()
	rows := sqlmock.NewRows(cols).
		AddRow(uuid.New(), "alice_bob", int64(1), "alice", "Alice", "", "text", "first", "", "", true, now).
		AddRow(uuid.New(), "alice_bob", int64(2), "bob", "Bob", "", "text", "second", "", "", false, now)
	mock.ExpectQuery("SELECT (.+) FROM messages").
		WithArgs("alice_bob").
		WillReturnRows(rows)

	msgs, err := repo.ListMessages(context.Background(), "alice_bob")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(1), msgs[0].Seq)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, int64(2), msgs[1].Seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}
