package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/awnumar/memguard"
	"golang.org/x/sync/errgroup"

	"jobboard/internal/domain"
	"jobboard/internal/metrics"
)

const (
	defaultFetchTimeout = 10 * time.Second
	defaultConcurrency  = 4
)

// StoreOptions tunes Initialize.
type StoreOptions struct {
	FetchTimeout time.Duration // per secret
	Concurrency  int
	Logger       *slog.Logger
	Metrics      *metrics.Recorder
}

// Store holds the secrets fetched at startup. Values live in memguard
// enclaves and are decrypted only for the duration of Get.
//
// Initialize runs at most once. After it returns the cache is never mutated,
// so Get takes no lock.
type Store struct {
	backend  Backend
	manifest Manifest
	opts     StoreOptions

	once    sync.Once
	ready   atomic.Bool
	initErr error

	values  map[string]*memguard.Enclave
	missing []string
}

// NewStore creates an uninitialized store for manifest.
func NewStore(backend Backend, manifest Manifest, opts StoreOptions) *Store {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{backend: backend, manifest: manifest, opts: opts}
}

type fetchResult struct {
	value []byte
	err   error
}

// Initialize fetches every manifest entry in parallel. A failed fetch leaves
// the name absent and is logged as a warning. Concurrent callers block until
// the first call finishes and all observe its result.
//
// The returned error is non-nil only when an entry marked required could not
// be fetched; the store is still usable for every other name.
func (s *Store) Initialize(ctx context.Context) error {
	s.once.Do(func() {
		s.initErr = s.fetchAll(ctx)
	})
	return s.initErr
}

func (s *Store) fetchAll(ctx context.Context) error {
	start := time.Now()
	results := make([]fetchResult, len(s.manifest))

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)
	for i, entry := range s.manifest {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
			defer cancel()
			v, err := s.backend.Access(fctx, entry.ID)
			if err == nil && len(v) == 0 {
				err = ErrEmptyPayload
			}
			results[i] = fetchResult{value: v, err: err}
			return nil
		})
	}
	_ = g.Wait()

	values := make(map[string]*memguard.Enclave, len(s.manifest))
	var missing, requiredMissing []string
	for i, entry := range s.manifest {
		r := results[i]
		if r.err != nil {
			missing = append(missing, entry.Name)
			if entry.Required {
				requiredMissing = append(requiredMissing, entry.Name)
			}
			result := "error"
			if errors.Is(r.err, ErrEmptyPayload) {
				result = "empty"
			}
			s.opts.Metrics.SecretFetch(result)
			// The cause never contains the value; it is safe to log.
			s.opts.Logger.Warn("secret fetch failed",
				"name", entry.Name, "backend", s.backend.Name(), "error", r.err)
			continue
		}
		s.opts.Metrics.SecretFetch("ok")
		// NewEnclave wipes its argument.
		values[entry.Name] = memguard.NewEnclave(r.value)
	}
	sort.Strings(missing)

	s.values = values
	s.missing = missing
	s.ready.Store(true)

	if err := s.backend.Close(); err != nil {
		s.opts.Logger.Warn("close secret backend", "backend", s.backend.Name(), "error", err)
	}
	s.opts.Logger.Info("secrets initialized",
		"backend", s.backend.Name(),
		"loaded", len(values),
		"missing", len(missing),
		"duration", time.Since(start))

	if len(requiredMissing) > 0 {
		sort.Strings(requiredMissing)
		return domain.E(domain.KindSecretMissing, "secrets.initialize",
			fmt.Errorf("required secrets unavailable: %v", requiredMissing))
	}
	return nil
}

// Initialized reports whether Initialize has completed.
func (s *Store) Initialized() bool { return s.ready.Load() }

// Get returns the value cached under name.
func (s *Store) Get(name string) (string, error) {
	const op = "secrets.get"
	if !s.ready.Load() {
		return "", domain.E(domain.KindSecretsNotInitialized, op, nil)
	}
	enc, ok := s.values[name]
	if !ok || enc == nil {
		return "", domain.E(domain.KindSecretMissing, op, fmt.Errorf("secret %q was not loaded", name))
	}
	buf, err := enc.Open()
	if err != nil {
		return "", domain.E(domain.KindSecretMissing, op, fmt.Errorf("open secret %q: %w", name, err))
	}
	defer buf.Destroy()
	return string(buf.Bytes()), nil
}

// Missing lists manifest names that failed to load, sorted.
func (s *Store) Missing() []string {
	if !s.ready.Load() {
		return nil
	}
	return append([]string(nil), s.missing...)
}

// Present lists the loaded names, sorted.
func (s *Store) Present() []string {
	if !s.ready.Load() {
		return nil
	}
	out := make([]string, 0, len(s.values))
	for name := range s.values {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
