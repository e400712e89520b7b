// README: Caller identity shared by the JWT and Firebase verifiers.
package infra

import "context"

// Token holds the verified token data used by downstream middleware.
type Token struct {
	UID    string
	Claims map[string]any
}

// TokenVerifier verifies a raw bearer token string and returns token data.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Token, error)
}
