// Package testutil provides shared fakes for the secret store and identity
// verifier, for use in tests across the codebase.
package testutil

import (
	"context"
	"errors"
	"sync"

	"jobboard/internal/domain"
)

// === Secret store fake ===

// Secrets is an in-memory secret store. The zero value is uninitialized and
// rejects every read, like the real store before Initialize.
type Secrets struct {
	mu     sync.RWMutex
	values map[string]string
	ready  bool
}

// NewSecrets returns an initialized store holding values.
func NewSecrets(values map[string]string) *Secrets {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &Secrets{values: cp, ready: true}
}

// Get implements the secret reader used by the verifier factory, the client
// factory and the webhook handler.
func (s *Secrets) Get(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return "", domain.E(domain.KindSecretsNotInitialized, "secrets.get", nil)
	}
	v, ok := s.values[name]
	if !ok {
		return "", domain.E(domain.KindSecretMissing, "secrets.get", errors.New(name))
	}
	return v, nil
}

// Initialized reports whether reads are allowed.
func (s *Secrets) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// SetInitialized flips the initialized flag.
func (s *Secrets) SetInitialized(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// === Identity verifier fake ===

// Tokens maps bearer tokens to the principals they verify as. Unknown
// tokens fail with KindInvalidOrExpired.
type Tokens map[string]domain.Principal

// Verify implements the gate's token verifier.
func (t Tokens) Verify(_ context.Context, token string) (domain.Principal, error) {
	p, ok := t[token]
	if !ok {
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, "testutil.verify", nil)
	}
	return p, nil
}
