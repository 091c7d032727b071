package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/core/contracts"
	"chatsync/internal/core/domain"
)

type fakeVerifier struct {
	principal *contracts.Principal
	err       error
}

func (f *fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*contracts.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.principal, nil
}

func TestRegisterCreatesProfile(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(testLogger(), repo, &fakeVerifier{principal: &contracts.Principal{
		UID:         "u1",
		DisplayName: "Alice",
		Email:       "alice@example.com",
		PhotoURL:    "https://cdn/a.png",
	}})

	profile, err := svc.Register(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.UID)
	assert.Equal(t, "Alice", profile.DisplayName)

	// Registering the same identity twice is a conflict
	_, err = svc.Register(context.Background(), "token")
	assert.ErrorIs(t, err, domain.ErrProfileExists)
}

func TestRegisterRejectsBadToken(t *testing.T) {
	svc := NewProfileService(testLogger(), newFakeProfileRepo(), &fakeVerifier{err: assert.AnError})
	_, err := svc.Register(context.Background(), "bad")
	require.Error(t, err)
}

func TestLoginIsIdempotent(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(testLogger(), repo, &fakeVerifier{principal: &contracts.Principal{
		UID:         "u1",
		DisplayName: "Alice",
	}})

	first, err := svc.Login(context.Background(), "token")
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, first.UID, second.UID)
	assert.Len(t, repo.profiles, 1)
}

func TestUpdateLocation(t *testing.T) {
	repo := newFakeProfileRepo(&domain.UserProfile{UID: "u1"})
	svc := NewProfileService(testLogger(), repo, &fakeVerifier{})

	require.NoError(t, svc.UpdateLocation(context.Background(), "u1", domain.GeoPoint{Lat: 48.85, Lng: 2.35}))
	p, err := repo.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, p.LastLocation)
	assert.InDelta(t, 48.85, p.LastLocation.Lat, 1e-9)

	err = svc.UpdateLocation(context.Background(), "missing", domain.GeoPoint{})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}
