// Package firebase verifies Firebase Authentication ID tokens against
// Google's published signing keys.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Firebase signs ID tokens with the securetoken service account; the key set
// rotates, so it is fetched through an auto-refreshing cache.
const jwksURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// Verifier validates Firebase ID tokens for a single project. The rate
// limiter and handlers trust it to supply a stable user ID (the token
// subject, i.e. the Firebase uid).
type Verifier struct {
	projectID string
	issuer    string
	cache     *jwk.Cache
}

// NewVerifier builds a Verifier for the given Firebase project and performs
// an initial key fetch so misconfiguration surfaces at startup.
func NewVerifier(ctx context.Context, projectID string) (*Verifier, error) {
	if projectID == "" {
		return nil, errors.New("firebase: project id is required")
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("firebase: register jwks url: %w", err)
	}
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("firebase: fetch signing keys: %w", err)
	}

	return &Verifier{
		projectID: projectID,
		issuer:    "https://securetoken.google.com/" + projectID,
		cache:     cache,
	}, nil
}

// VerifyIDToken checks signature, expiry, issuer and audience, and returns
// the Firebase uid carried in the token subject.
func (v *Verifier) VerifyIDToken(ctx context.Context, raw string) (string, error) {
	keyset, err := v.cache.Get(ctx, jwksURL)
	if err != nil {
		return "", fmt.Errorf("firebase: load signing keys: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKeySet(keyset),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.projectID),
	)
	if err != nil {
		return "", fmt.Errorf("firebase: invalid token: %w", err)
	}

	uid := token.Subject()
	if uid == "" {
		return "", errors.New("firebase: token has no subject")
	}
	return uid, nil
}
