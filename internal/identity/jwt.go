package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"jobboard/internal/domain"
)

// HS256Verifier validates tokens signed with the project's shared JWT secret
// locally, without a round trip to the auth service.
type HS256Verifier struct {
	secret []byte
}

// NewHS256Verifier creates a verifier for secret.
func NewHS256Verifier(secret string) (*HS256Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Verifier{secret: []byte(secret)}, nil
}

// Verify checks signature, expiry, and the presence of sub.
func (v *HS256Verifier) Verify(_ context.Context, token string) (domain.Principal, error) {
	const op = "identity.hs256"
	if err := CheckTokenShape(token); err != nil {
		return domain.Principal{}, err
	}

	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, op, fmt.Errorf("jwt parse: %w", err))
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, op, fmt.Errorf("unsupported claim type %T", tok.Claims))
	}
	sub, _ := raw["sub"].(string)
	if sub == "" {
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, op, errors.New("token has no subject"))
	}
	email, _ := raw["email"].(string)
	return domain.Principal{ID: sub, Email: email}, nil
}

// OIDCVerifier validates tokens against an OIDC provider's signing keys.
type OIDCVerifier struct {
	verifier       *oidc.IDTokenVerifier
	allowedIssuers map[string]bool
	timeout        time.Duration
}

// NewOIDCVerifier discovers the provider at issuerURL.
func NewOIDCVerifier(ctx context.Context, issuerURL, audience string, allowedIssuers []string, timeout time.Duration) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: audience})
	return &OIDCVerifier{
		verifier:       verifier,
		allowedIssuers: issuerSet(allowedIssuers, issuerURL),
		timeout:        orDefault(timeout),
	}, nil
}

// NewOIDCVerifierFromJWKS skips discovery and fetches keys from jwksURL.
func NewOIDCVerifierFromJWKS(ctx context.Context, jwksURL, issuerURL, audience string, allowedIssuers []string, timeout time.Duration) *OIDCVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	verifier := oidc.NewVerifier(issuerURL, keySet, &oidc.Config{ClientID: audience})
	return &OIDCVerifier{
		verifier:       verifier,
		allowedIssuers: issuerSet(allowedIssuers, issuerURL),
		timeout:        orDefault(timeout),
	}
}

func issuerSet(allowed []string, issuerURL string) map[string]bool {
	issuers := make(map[string]bool, len(allowed))
	for _, iss := range allowed {
		issuers[iss] = true
	}
	if len(issuers) == 0 && issuerURL != "" {
		issuers[issuerURL] = true
	}
	return issuers
}

func orDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultVerifyTimeout
	}
	return d
}

// Verify checks the token signature and issuer allowlist. Key fetches are
// bounded by the verifier timeout.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (domain.Principal, error) {
	const op = "identity.oidc"
	if err := CheckTokenShape(token); err != nil {
		return domain.Principal{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, op, fmt.Errorf("token verification failed: %w", err))
	}
	if len(v.allowedIssuers) > 0 && !v.allowedIssuers[idToken.Issuer] {
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, op, fmt.Errorf("issuer %q not in allowed list", idToken.Issuer))
	}
	if idToken.Subject == "" {
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, op, errors.New("token has no subject"))
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, op, fmt.Errorf("parse claims: %w", err))
	}
	return domain.Principal{ID: idToken.Subject, Email: claims.Email}, nil
}
