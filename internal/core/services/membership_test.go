package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/core/domain"
)

func newMembershipFixture() (*MembershipService, *fakeMembershipRepo, *fakeGroupRepo, *fakeConversationRepo, *fakeTxManager) {
	peers := &fakeMembershipRepo{}
	groups := newFakeGroupRepo()
	convs := newFakeConversationRepo()
	tx := &fakeTxManager{}
	svc := NewMembershipService(testLogger(), peers, groups, convs, tx)
	return svc, peers, groups, convs, tx
}

func TestLinkDirectWritesBothSides(t *testing.T) {
	svc, peers, _, convs, tx := newMembershipFixture()

	convID, err := svc.LinkDirect(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice_bob", convID)
	assert.Equal(t, domain.ConversationDirect, convs.created[convID])
	assert.Equal(t, 1, tx.calls)

	require.Len(t, peers.entries, 2)
	assert.Equal(t, "bob", peers.entries[0].OwnerUID)
	assert.Equal(t, "alice", peers.entries[0].PeerUID)
	assert.Equal(t, "alice", peers.entries[1].OwnerUID)
	assert.Equal(t, "bob", peers.entries[1].PeerUID)
	for _, e := range peers.entries {
		assert.Equal(t, convID, e.ConversationID)
	}
}

func TestLinkDirectIdempotent(t *testing.T) {
	svc, peers, _, _, _ := newMembershipFixture()

	first, err := svc.LinkDirect(context.Background(), "alice", "bob")
	require.NoError(t, err)

	// Simulate traffic since the first link
	require.NoError(t, peers.RefreshLastMessage(context.Background(), "alice", "bob", "hey", peers.entries[0].LastMessageAt))

	second, err := svc.LinkDirect(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.Len(t, peers.entries, 2, "re-linking must not duplicate entries")
	assert.Equal(t, "hey", peers.entries[0].LastMessage, "re-linking must not clobber last-message columns")
}

func TestLinkDirectRejectsInvalidPairs(t *testing.T) {
	svc, peers, _, convs, _ := newMembershipFixture()

	for _, pair := range [][2]string{{"", "bob"}, {"alice", ""}, {"alice", "alice"}, {"a_b", "c"}} {
		_, err := svc.LinkDirect(context.Background(), pair[0], pair[1])
		assert.ErrorIs(t, err, domain.ErrInvalidUserID, "pair %v", pair)
	}
	assert.Empty(t, peers.entries)
	assert.Empty(t, convs.created)
}

func TestLinkDirectRollsBackOnFailure(t *testing.T) {
	svc, peers, _, _, tx := newMembershipFixture()
	tx.err = assert.AnError

	_, err := svc.LinkDirect(context.Background(), "alice", "bob")
	require.Error(t, err)
	assert.Empty(t, peers.entries, "failed transaction must leave no entries")
}

func TestCreateGroup(t *testing.T) {
	svc, _, groups, convs, tx := newMembershipFixture()

	group, err := svc.CreateGroup(context.Background(), "admin", []string{"bob", "carol", "bob"}, "weekend plans", "https://cdn/avatar.png")
	require.NoError(t, err)
	assert.Equal(t, "admin", group.AdminUID)
	assert.Equal(t, []string{"admin", "bob", "carol"}, group.MemberUIDs, "admin first, duplicates dropped")
	assert.Equal(t, domain.ConversationGroup, convs.created[group.ConversationID])
	assert.Equal(t, 1, tx.calls)

	stored, err := groups.GetGroup(context.Background(), group.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, group.MemberUIDs, stored.MemberUIDs)
}

func TestCreateGroupValidation(t *testing.T) {
	svc, _, _, convs, tx := newMembershipFixture()

	tests := []struct {
		name    string
		admin   string
		members []string
		gName   string
		avatar  string
		wantErr error
	}{
		{"missing admin", "", []string{"b"}, "n", "a", domain.ErrInvalidUserID},
		{"empty name", "admin", []string{"b"}, "", "a", domain.ErrEmptyGroupName},
		{"missing avatar", "admin", []string{"b"}, "n", "", domain.ErrMissingGroupAvatar},
		{"no members", "admin", nil, "n", "a", domain.ErrNoGroupMembers},
		{"blank member", "admin", []string{"b", ""}, "n", "a", domain.ErrInvalidUserID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateGroup(context.Background(), tt.admin, tt.members, tt.gName, tt.avatar)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, convs.created, "validation failures must not reach storage")
	assert.Zero(t, tx.calls)
}

func TestCreateGroupMemberFanOutFailsWhole(t *testing.T) {
	svc, _, groups, _, tx := newMembershipFixture()
	groups.failOnMemberUID = "carol"

	_, err := svc.CreateGroup(context.Background(), "admin", []string{"bob", "carol"}, "trip", "https://cdn/a.png")
	require.Error(t, err)
	assert.Equal(t, 1, tx.calls, "fan-out must run inside one transaction")
}
