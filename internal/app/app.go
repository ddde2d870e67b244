// Package app provides application-level wiring for the job-board API:
// identity verification, role resolution, gates, the client factory and the
// router.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobboard/internal/api"
	"jobboard/internal/clients"
	"jobboard/internal/config"
	"jobboard/internal/db"
	"jobboard/internal/db/repository"
	"jobboard/internal/identity"
	"jobboard/internal/metrics"
	"jobboard/internal/middleware"
	"jobboard/internal/service/security"
)

// SecretStore is the initialized secret store. *secrets.Store satisfies it.
type SecretStore interface {
	Get(name string) (string, error)
	Initialized() bool
}

// Deps holds the external dependencies that main() must provide. The secret
// store must already be initialized.
type Deps struct {
	Cfg      *config.Config
	Secrets  SecretStore
	Logger   *slog.Logger
	Registry *prometheus.Registry
	// Metrics is the recorder already registered on Registry, if any.
	Metrics *metrics.Recorder

	// Verifier overrides the identity verifier chosen by Cfg.Auth.
	Verifier identity.Verifier
	// Builders overrides client construction per kind.
	Builders map[clients.Kind]clients.Builder
}

// App holds the fully-wired application.
type App struct {
	Handler  http.Handler
	Factory  *clients.Factory
	Gate     *middleware.Gate
	Resolver *security.RoleResolver
	Metrics  *metrics.Recorder
}

// factoryRoleSource reads roles through the DbAdmin client, built on first
// use and shared for the life of the process.
type factoryRoleSource struct {
	factory *clients.Factory
}

func (s factoryRoleSource) Roles(ctx context.Context) (security.RoleReader, error) {
	admin, err := s.factory.AdminDB(ctx)
	if err != nil {
		return nil, err
	}
	return repository.NewProfileRepo(admin.DB), nil
}

// New wires every component from deps. The router's background work (rate
// limiter eviction) stops when ctx ends.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Secrets == nil || !deps.Secrets.Initialized() {
		return nil, fmt.Errorf("secret store must be initialized before wiring the app")
	}

	rec := deps.Metrics
	var metricsHandler http.Handler
	if deps.Registry != nil {
		if rec == nil {
			rec = metrics.New(deps.Registry)
		}
		if cfg.MetricsEnabled {
			metricsHandler = promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})
		}
	}

	// === Client factory ===
	factory := clients.NewFactory(deps.Secrets, clients.Options{
		DBDriver: cfg.DB.Driver,
		Logger:   logger.With("component", "clients"),
		Metrics:  rec,
		Builders: deps.Builders,
	})

	if cfg.DB.AutoMigrate || cfg.DB.BootstrapAdminID != "" {
		admin, err := factory.AdminDB(ctx)
		if err != nil {
			return nil, fmt.Errorf("open admin database: %w", err)
		}
		if cfg.DB.AutoMigrate {
			if err := db.RunMigrations(ctx, admin); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied")
		}
		if cfg.DB.BootstrapAdminID != "" {
			if err := seedAdmin(ctx, admin, cfg.DB.BootstrapAdminID, cfg.DB.BootstrapAdminEmail, logger); err != nil {
				return nil, err
			}
		}
	}

	// === Identity + roles ===
	verifier := deps.Verifier
	if verifier == nil {
		v, err := identity.New(ctx, cfg.Auth, deps.Secrets)
		if err != nil {
			return nil, fmt.Errorf("identity verifier: %w", err)
		}
		verifier = v
	}
	resolver := security.NewRoleResolver(factoryRoleSource{factory: factory}, cfg.Auth.RoleLookupTimeout)
	gate := middleware.NewGate(verifier, resolver, logger.With("component", "gate"), rec)

	// === HTTP ===
	handler := api.NewHandler(factory, deps.Secrets, logger.With("component", "api"), api.Options{})
	router := api.NewRouter(ctx, handler, gate, api.RouterConfig{
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
		Metrics: metricsHandler,
	})

	return &App{
		Handler:  router,
		Factory:  factory,
		Gate:     gate,
		Resolver: resolver,
		Metrics:  rec,
	}, nil
}

// Close releases the clients the factory built.
func (a *App) Close() error {
	return a.Factory.Close()
}
