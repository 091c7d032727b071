package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatsync/internal/core/contracts"
	"chatsync/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeTxManager counts transactions and runs fn directly. Set err to
// simulate the whole transaction rolling back.
type fakeTxManager struct {
	calls int
	err   error
}

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

type fakeConversationRepo struct {
	created map[string]domain.ConversationKind
	err     error
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{created: make(map[string]domain.ConversationKind)}
}

func (f *fakeConversationRepo) CreateConversation(ctx context.Context, id string, kind domain.ConversationKind) (*domain.Conversation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created[id] = kind
	return &domain.Conversation{ID: id, Kind: kind, CreatedAt: time.Now()}, nil
}

func (f *fakeConversationRepo) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	kind, ok := f.created[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return &domain.Conversation{ID: id, Kind: kind}, nil
}

type fakeMembershipRepo struct {
	entries      []domain.DirectPeerEntry
	upsertErr    error
	failOnOwner  string // UpsertPeer fails when entry.OwnerUID matches
	refreshCalls []string
}

func (f *fakeMembershipRepo) UpsertPeer(ctx context.Context, entry *domain.DirectPeerEntry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.failOnOwner != "" && entry.OwnerUID == f.failOnOwner {
		return domain.ErrProfileNotFound
	}
	for _, e := range f.entries {
		if e.OwnerUID == entry.OwnerUID && e.PeerUID == entry.PeerUID {
			return nil // keep existing last-message columns
		}
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeMembershipRepo) RefreshLastMessage(ctx context.Context, ownerUID, peerUID, preview string, at time.Time) error {
	f.refreshCalls = append(f.refreshCalls, ownerUID+"<-"+peerUID)
	for i := range f.entries {
		if f.entries[i].OwnerUID == ownerUID && f.entries[i].PeerUID == peerUID {
			f.entries[i].LastMessage = preview
			f.entries[i].LastMessageAt = at
			return nil
		}
	}
	return domain.ErrConversationNotFound
}

func (f *fakeMembershipRepo) ListPeers(ctx context.Context, ownerUID string) ([]domain.DirectPeerEntry, error) {
	var out []domain.DirectPeerEntry
	for _, e := range f.entries {
		if e.OwnerUID == ownerUID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeGroupRepo struct {
	groups          map[string]*domain.Group
	members         map[string][]string
	failOnMemberUID string // AddMember fails for this UID
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:  make(map[string]*domain.Group),
		members: make(map[string][]string),
	}
}

func (f *fakeGroupRepo) CreateGroup(ctx context.Context, g *domain.Group) error {
	cp := *g
	f.groups[g.ConversationID] = &cp
	return nil
}

func (f *fakeGroupRepo) AddMember(ctx context.Context, conversationID, memberUID string) error {
	if memberUID == f.failOnMemberUID && f.failOnMemberUID != "" {
		return domain.ErrProfileNotFound
	}
	f.members[conversationID] = append(f.members[conversationID], memberUID)
	return nil
}

func (f *fakeGroupRepo) GetGroup(ctx context.Context, conversationID string) (*domain.Group, error) {
	g, ok := f.groups[conversationID]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	out := *g
	out.MemberUIDs = f.members[conversationID]
	return &out, nil
}

func (f *fakeGroupRepo) ListGroups(ctx context.Context, memberUID string) ([]domain.Group, error) {
	var out []domain.Group
	for convID, uids := range f.members {
		for _, uid := range uids {
			if uid == memberUID {
				g := *f.groups[convID]
				g.MemberUIDs = uids
				out = append(out, g)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) IsMember(ctx context.Context, conversationID, uid string) (bool, error) {
	if _, ok := f.groups[conversationID]; !ok {
		return false, nil
	}
	for _, m := range f.members[conversationID] {
		if m == uid {
			return true, nil
		}
	}
	return false, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	seq      int64
	messages []domain.Message
	saveErr  error
	readN    int64
	readErr  error
	unread   bool
}

func (f *fakeMessageRepo) SaveWithSequence(ctx context.Context, msg *domain.Message) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.seq++
	msg.Seq = f.seq
	f.messages = append(f.messages, *msg)
	return f.seq, nil
}

func (f *fakeMessageRepo) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) GetMessage(ctx context.Context, conversationID string, id uuid.UUID) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ConversationID == conversationID && f.messages[i].ID == id {
			m := f.messages[i]
			return &m, nil
		}
	}
	return nil, domain.ErrMessageNotFound
}

func (f *fakeMessageRepo) UpdateText(ctx context.Context, conversationID string, id uuid.UUID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ConversationID == conversationID && f.messages[i].ID == id {
			f.messages[i].Body = text
			return nil
		}
	}
	return domain.ErrMessageNotFound
}

func (f *fakeMessageRepo) Delete(ctx context.Context, conversationID string, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ConversationID == conversationID && f.messages[i].ID == id {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return nil
		}
	}
	return domain.ErrMessageNotFound
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, conversationID, readerID string, upToSeq int64) (int64, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.readN, nil
}

func (f *fakeMessageRepo) LastMessage(ctx context.Context, conversationID string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *domain.Message
	for i := range f.messages {
		if f.messages[i].ConversationID == conversationID {
			last = &f.messages[i]
		}
	}
	if last == nil {
		return nil, domain.ErrMessageNotFound
	}
	m := *last
	return &m, nil
}

func (f *fakeMessageRepo) HasUnread(ctx context.Context, conversationID, readerID string) (bool, error) {
	return f.unread, nil
}

type fakeProfileRepo struct {
	profiles map[string]*domain.UserProfile
}

func newFakeProfileRepo(profiles ...*domain.UserProfile) *fakeProfileRepo {
	f := &fakeProfileRepo{profiles: make(map[string]*domain.UserProfile)}
	for _, p := range profiles {
		f.profiles[p.UID] = p
	}
	return f
}

func (f *fakeProfileRepo) CreateProfile(ctx context.Context, p *domain.UserProfile) error {
	if _, ok := f.profiles[p.UID]; ok {
		return domain.ErrProfileExists
	}
	f.profiles[p.UID] = p
	return nil
}

func (f *fakeProfileRepo) EnsureProfile(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, error) {
	if existing, ok := f.profiles[p.UID]; ok {
		return existing, nil
	}
	f.profiles[p.UID] = p
	return p, nil
}

func (f *fakeProfileRepo) GetProfile(ctx context.Context, uid string) (*domain.UserProfile, error) {
	p, ok := f.profiles[uid]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfileRepo) ListProfiles(ctx context.Context) ([]domain.UserProfile, error) {
	var out []domain.UserProfile
	for _, p := range f.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProfileRepo) UpdateLocation(ctx context.Context, uid string, loc domain.GeoPoint) error {
	p, ok := f.profiles[uid]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.LastLocation = &loc
	return nil
}

// fakeRegistry records everything fanned out during a test.
type fakeRegistry struct {
	mu         sync.Mutex
	acks       []domain.AckMessage
	broadcasts []domain.ChatMessage
	events     []any
}

func (f *fakeRegistry) Register(c contracts.Client)   {}
func (f *fakeRegistry) Unregister(c contracts.Client) {}

func (f *fakeRegistry) SendAck(ctx context.Context, userID string, ack domain.AckMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, ack)
}

func (f *fakeRegistry) Broadcast(ctx context.Context, conversationID string, msg domain.ChatMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, msg)
}

func (f *fakeRegistry) Publish(ctx context.Context, conversationID string, event any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

type fakeQueue struct {
	published  map[string][][]byte
	publishErr error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{published: make(map[string][][]byte)}
}

func (f *fakeQueue) PublishToStream(ctx context.Context, conversationID string, payload []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published[conversationID] = append(f.published[conversationID], payload)
	return nil
}

func (f *fakeQueue) SubscribeToStream(ctx context.Context, conversationID, group string, handler func(ctx context.Context, messageID string, data []byte) error) error {
	return nil
}

func (f *fakeQueue) AcknowledgeMessage(ctx context.Context, conversationID, group, messageID string) error {
	return nil
}

func (f *fakeQueue) DeleteMessage(ctx context.Context, conversationID, messageID string) error {
	return nil
}

func (f *fakeQueue) DeleteStream(ctx context.Context, conversationID string) error {
	delete(f.published, conversationID)
	return nil
}
