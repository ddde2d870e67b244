// Package identity verifies bearer tokens and produces the request principal.
package identity

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"jobboard/internal/config"
	"jobboard/internal/domain"
	"jobboard/internal/secrets"
)

// Verifier turns a bearer token into a verified principal. Failures carry
// domain.KindMalformedToken or domain.KindInvalidOrExpired. Implementations
// never retry.
type Verifier interface {
	Verify(ctx context.Context, token string) (domain.Principal, error)
}

// SecretReader is the read side of the secret store.
type SecretReader interface {
	Get(name string) (string, error)
}

// CheckTokenShape rejects tokens that cannot be a compact JWS without any
// network call: empty, containing whitespace, or not three non-empty
// dot-separated segments.
func CheckTokenShape(token string) error {
	const op = "identity.shape"
	if token == "" {
		return domain.E(domain.KindMalformedToken, op, fmt.Errorf("empty token"))
	}
	if strings.IndexFunc(token, unicode.IsSpace) >= 0 {
		return domain.E(domain.KindMalformedToken, op, fmt.Errorf("token contains whitespace"))
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return domain.E(domain.KindMalformedToken, op, fmt.Errorf("token has %d segments", len(parts)))
	}
	for _, p := range parts {
		if p == "" {
			return domain.E(domain.KindMalformedToken, op, fmt.Errorf("token has an empty segment"))
		}
	}
	return nil
}

// New builds the verifier selected by cfg.Verifier. Values not set in cfg are
// read from the secret store.
func New(ctx context.Context, cfg config.AuthConfig, store SecretReader) (Verifier, error) {
	switch cfg.Verifier {
	case config.VerifierSupabase:
		url, err := valueOrSecret(cfg.SupabaseURL, store, secrets.SupabaseURL)
		if err != nil {
			return nil, err
		}
		key, err := valueOrSecret(cfg.SupabaseAnonKey, store, secrets.SupabaseAnonKey)
		if err != nil {
			return nil, err
		}
		return NewSupabaseVerifier(url, key, cfg.Timeout), nil
	case config.VerifierJWT:
		secret, err := store.Get(secrets.SupabaseJWTSecret)
		if err != nil {
			return nil, fmt.Errorf("jwt verifier: %w", err)
		}
		return NewHS256Verifier(secret)
	case config.VerifierOIDC:
		if cfg.JWKSURL != "" {
			return NewOIDCVerifierFromJWKS(ctx, cfg.JWKSURL, cfg.IssuerURL, cfg.Audience, cfg.AllowedIssuers, cfg.Timeout), nil
		}
		return NewOIDCVerifier(ctx, cfg.IssuerURL, cfg.Audience, cfg.AllowedIssuers, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown verifier %q", cfg.Verifier)
	}
}

func valueOrSecret(v string, store SecretReader, name string) (string, error) {
	if v != "" {
		return v, nil
	}
	s, err := store.Get(name)
	if err != nil {
		return "", fmt.Errorf("supabase verifier: %w", err)
	}
	return s, nil
}
