// Package clients builds the secret-backed service clients once per process.
package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"jobboard/internal/domain"
	"jobboard/internal/metrics"
	"jobboard/internal/secrets"
)

// Kind names one client family.
type Kind string

const (
	KindDBAdmin       Kind = "db_admin"
	KindDBAnon        Kind = "db_anon"
	KindBilling       Kind = "billing"
	KindAIEmbedding   Kind = "ai_embedding"
	KindObjectStorage Kind = "object_storage"
)

// Kinds lists every client family in a stable order.
func Kinds() []Kind {
	return []Kind{KindDBAdmin, KindDBAnon, KindBilling, KindAIEmbedding, KindObjectStorage}
}

// RequiredSecrets lists the secrets a kind is built from. DbAdmin and DbAnon
// never share a credential.
func (k Kind) RequiredSecrets() []string {
	switch k {
	case KindDBAdmin:
		return []string{secrets.DatabaseAdminURL}
	case KindDBAnon:
		return []string{secrets.DatabaseAnonURL}
	case KindBilling:
		return []string{secrets.StripeSecretKey}
	case KindAIEmbedding:
		return []string{secrets.OpenAIAPIKey}
	case KindObjectStorage:
		return []string{secrets.R2AccountID, secrets.R2AccessKeyID, secrets.R2SecretAccessKey, secrets.R2BucketName}
	default:
		return nil
	}
}

// SecretReader is the read side of the secret store.
type SecretReader interface {
	Get(name string) (string, error)
}

// Builder constructs one client from its resolved secrets.
type Builder func(ctx context.Context, creds map[string]string) (any, error)

// Options configures a Factory.
type Options struct {
	DBDriver string
	Logger   *slog.Logger
	Metrics  *metrics.Recorder
	// Builders overrides the default builder per kind.
	Builders map[Kind]Builder
}

// Factory lazily constructs one client per kind. Successful constructions
// are kept for the life of the process; failures are not, so the next call
// tries again.
type Factory struct {
	secrets  SecretReader
	builders map[Kind]Builder
	logger   *slog.Logger
	metrics  *metrics.Recorder

	group singleflight.Group
	cache sync.Map // Kind -> any
}

// NewFactory creates a factory reading credentials from store.
func NewFactory(store SecretReader, opts Options) *Factory {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	builders := defaultBuilders(opts.DBDriver)
	for k, b := range opts.Builders {
		builders[k] = b
	}
	return &Factory{
		secrets:  store,
		builders: builders,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Get returns the client for kind, building it on first use. Concurrent
// first calls share a single construction.
func (f *Factory) Get(ctx context.Context, kind Kind) (any, error) {
	if v, ok := f.cache.Load(kind); ok {
		return v, nil
	}
	v, err, _ := f.group.Do(string(kind), func() (any, error) {
		if v, ok := f.cache.Load(kind); ok {
			return v, nil
		}
		// Detach from the caller so one cancelled request does not fail
		// every waiter on the shared construction.
		c, err := f.build(context.WithoutCancel(ctx), kind)
		if err != nil {
			f.metrics.ClientConstruction(string(kind), "error")
			return nil, err
		}
		f.metrics.ClientConstruction(string(kind), "ok")
		f.cache.Store(kind, c)
		return c, nil
	})
	return v, err
}

func (f *Factory) build(ctx context.Context, kind Kind) (any, error) {
	const op = "clients.build"
	b, ok := f.builders[kind]
	if !ok {
		return nil, domain.E(domain.KindClientConstruction, op, fmt.Errorf("unknown client kind %q", kind))
	}

	names := kind.RequiredSecrets()
	creds := make(map[string]string, len(names))
	for _, name := range names {
		v, err := f.secrets.Get(name)
		if err != nil {
			return nil, domain.E(domain.KindClientConstruction, op, fmt.Errorf("%s: %w", kind, err))
		}
		if v == "" {
			return nil, domain.E(domain.KindClientConstruction, op, fmt.Errorf("%s: secret %s is empty", kind, name))
		}
		creds[name] = v
	}

	c, err := b(ctx, creds)
	if err != nil {
		f.logger.Error("client construction failed", "kind", string(kind), "error", err)
		return nil, domain.E(domain.KindClientConstruction, op, fmt.Errorf("%s: %w", kind, err))
	}
	if c == nil {
		return nil, domain.E(domain.KindClientConstruction, op, fmt.Errorf("%s: builder returned nil", kind))
	}
	f.logger.Info("client constructed", "kind", string(kind))
	return c, nil
}

// Built reports whether kind has been constructed.
func (f *Factory) Built(kind Kind) bool {
	_, ok := f.cache.Load(kind)
	return ok
}

// Close releases clients that hold resources (database pools).
func (f *Factory) Close() error {
	var errs []error
	f.cache.Range(func(_, v any) bool {
		if c, ok := v.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		return true
	})
	return errors.Join(errs...)
}

func typed[T any](f *Factory, ctx context.Context, kind Kind) (T, error) {
	var zero T
	v, err := f.Get(ctx, kind)
	if err != nil {
		return zero, err
	}
	c, ok := v.(T)
	if !ok {
		return zero, domain.E(domain.KindClientConstruction, "clients.get",
			fmt.Errorf("%s: unexpected client type %T", kind, v))
	}
	return c, nil
}
