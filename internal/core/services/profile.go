package services

import (
	"context"
	"fmt"
	"log/slog"

	"chatsync/internal/core/contracts"
	"chatsync/internal/core/domain"
)

type IProfileService interface {
	// Register verifies the identity token and creates a fresh profile.
	// An existing profile is a hard failure on this path.
	Register(ctx context.Context, idToken string) (*domain.UserProfile, error)
	// Login verifies the identity token and returns the profile,
	// creating it when the user authenticated through a linked social
	// account for the first time.
	Login(ctx context.Context, idToken string) (*domain.UserProfile, error)
	GetProfile(ctx context.Context, uid string) (*domain.UserProfile, error)
	ListProfiles(ctx context.Context) ([]domain.UserProfile, error)
	UpdateLocation(ctx context.Context, uid string, loc domain.GeoPoint) error
}

type ProfileService struct {
	log      *slog.Logger
	repo     domain.ProfileRepository
	verifier contracts.IdentityVerifier
}

func NewProfileService(log *slog.Logger, repo domain.ProfileRepository, verifier contracts.IdentityVerifier) *ProfileService {
	return &ProfileService{
		log:      log,
		repo:     repo,
		verifier: verifier,
	}
}

func (s *ProfileService) Register(ctx context.Context, idToken string) (*domain.UserProfile, error) {
	principal, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.log.ErrorContext(ctx, "profile - register - token verification failed", "err", err)
		return nil, fmt.Errorf("identity verification failed: %w", err)
	}
	profile := profileFromPrincipal(principal)
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		s.log.ErrorContext(ctx, "profile - register - create profile failed", "uid", principal.UID, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "profile - register - create profile success", "uid", profile.UID)
	return profile, nil
}

func (s *ProfileService) Login(ctx context.Context, idToken string) (*domain.UserProfile, error) {
	principal, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.log.ErrorContext(ctx, "profile - login - token verification failed", "err", err)
		return nil, fmt.Errorf("identity verification failed: %w", err)
	}
	// EnsureProfile treats an existing record as success; first social
	// login creates it on the fly.
	profile, err := s.repo.EnsureProfile(ctx, profileFromPrincipal(principal))
	if err != nil {
		s.log.ErrorContext(ctx, "profile - login - ensure profile failed", "uid", principal.UID, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "profile - login - ensure profile success", "uid", profile.UID)
	return profile, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, uid string) (*domain.UserProfile, error) {
	return s.repo.GetProfile(ctx, uid)
}

func (s *ProfileService) ListProfiles(ctx context.Context) ([]domain.UserProfile, error) {
	return s.repo.ListProfiles(ctx)
}

func (s *ProfileService) UpdateLocation(ctx context.Context, uid string, loc domain.GeoPoint) error {
	if err := s.repo.UpdateLocation(ctx, uid, loc); err != nil {
		s.log.ErrorContext(ctx, "profile - update location - failed", "uid", uid, "err", err)
		return err
	}
	return nil
}

func profileFromPrincipal(p *contracts.Principal) *domain.UserProfile {
	return &domain.UserProfile{
		UID:         p.UID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		PhotoURL:    p.PhotoURL,
	}
}
