package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks an identity token posted by the client at sign-in.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type identityClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// TokenVerifier validates identity tokens against a key source with
// optional issuer and audience checks.
type TokenVerifier struct {
	keyfunc  jwt.Keyfunc
	methods  []string
	issuer   string
	audience string
}

// NewJWKSVerifier fetches and refreshes keys from jwksURL in the background
// until ctx is cancelled.
func NewJWKSVerifier(ctx context.Context, jwksURL, issuer, audience string) (*TokenVerifier, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}
	return &TokenVerifier{keyfunc: k.Keyfunc, methods: asymmetricMethods, issuer: issuer, audience: audience}, nil
}

// NewStaticJWKSVerifier uses a fixed JWK Set document.
func NewStaticJWKSVerifier(jwks json.RawMessage, issuer, audience string) (*TokenVerifier, error) {
	k, err := keyfunc.NewJWKSetJSON(jwks)
	if err != nil {
		return nil, fmt.Errorf("parse jwks: %w", err)
	}
	return &TokenVerifier{keyfunc: k.Keyfunc, methods: asymmetricMethods, issuer: issuer, audience: audience}, nil
}

// NewHMACVerifier accepts HS256 tokens signed with secret. Meant for local
// development where no identity provider is available.
func NewHMACVerifier(secret, issuer, audience string) (*TokenVerifier, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	key := []byte(secret)
	return &TokenVerifier{
		keyfunc:  func(*jwt.Token) (any, error) { return key, nil },
		methods:  []string{jwt.SigningMethodHS256.Alg()},
		issuer:   issuer,
		audience: audience,
	}, nil
}

var asymmetricMethods = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "EdDSA"}

// Verify implements Verifier.
func (v *TokenVerifier) Verify(_ context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, fmt.Errorf("%w: token is required", ErrInvalidToken)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims identityClaims
	if _, err := jwt.ParseWithClaims(token, &claims, v.keyfunc, opts...); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Identity{UserID: claims.Subject, Email: strings.ToLower(claims.Email)}, nil
}
