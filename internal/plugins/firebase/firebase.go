package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"chatsync/internal/config"
	"chatsync/internal/core/contracts"
)

// IdentityVerifier validates Firebase ID tokens from the mobile client
// and maps them to principals.
type IdentityVerifier struct {
	client *auth.Client
}

func NewIdentityVerifier(ctx context.Context, cfg config.FirebaseConfig) (*IdentityVerifier, error) {
	if cfg.CredentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}
	opt := option.WithCredentialsFile(cfg.CredentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}
	return &IdentityVerifier{client: client}, nil
}

func (v *IdentityVerifier) VerifyIDToken(ctx context.Context, idToken string) (*contracts.Principal, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("invalid id token: %w", err)
	}
	p := &contracts.Principal{UID: token.UID}
	if name, ok := token.Claims["name"].(string); ok {
		p.DisplayName = name
	}
	if email, ok := token.Claims["email"].(string); ok {
		p.Email = email
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		p.PhotoURL = picture
	}
	return p, nil
}
