package contracts

import "context"

// Principal is the identity asserted by the external auth provider.
type Principal struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
}

// IdentityVerifier validates an identity token issued by the external
// auth provider and returns the asserted principal.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Principal, error)
}
