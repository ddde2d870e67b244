// Package secrets fetches the secret manifest once at startup and serves
// read-only lookups for the rest of the process lifetime.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"

	"jobboard/internal/config"
)

var (
	// ErrNotFound is returned by a backend that has no secret for an id.
	ErrNotFound = errors.New("secret not found")
	// ErrEmptyPayload is returned when the latest version carries no data.
	ErrEmptyPayload = errors.New("secret has no payload")
)

// Backend fetches the latest version of one secret by external id.
type Backend interface {
	Name() string
	Access(ctx context.Context, id string) ([]byte, error)
	Close() error
}

// NewBackend builds the backend selected by configuration.
func NewBackend(ctx context.Context, cfg config.SecretsConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendGCP:
		return NewGCPBackend(ctx, cfg.ProjectID, cfg.CredentialsFile)
	case config.BackendAWS:
		return NewAWSBackend(ctx, cfg.AWSRegion)
	case config.BackendEnv:
		return NewEnvBackend(os.LookupEnv), nil
	default:
		return nil, fmt.Errorf("unknown secret backend %q", cfg.Backend)
	}
}

// EnvBackend resolves ids from the process environment. It exists for local
// development; configuration refuses it in production.
type EnvBackend struct {
	lookup func(string) (string, bool)
}

// NewEnvBackend creates a backend over lookup (usually os.LookupEnv).
func NewEnvBackend(lookup func(string) (string, bool)) *EnvBackend {
	return &EnvBackend{lookup: lookup}
}

func (b *EnvBackend) Name() string { return config.BackendEnv }

func (b *EnvBackend) Access(_ context.Context, id string) ([]byte, error) {
	v, ok := b.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	if v == "" {
		return nil, ErrEmptyPayload
	}
	return []byte(v), nil
}

func (b *EnvBackend) Close() error { return nil }
