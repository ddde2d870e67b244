// Package main is the entry point for the job-board API server. It loads
// the secret manifest before serving, wires the gates and client factory,
// and shuts down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"jobboard/internal/app"
	"jobboard/internal/config"
	"jobboard/internal/metrics"
	"jobboard/internal/secrets"
)

func main() {
	err := run()
	// Wipe every secret enclave before the process exits.
	memguard.Purge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	// === Secrets: loaded once, before any request is served ===
	manifest := secrets.DefaultManifest()
	if cfg.Secrets.ManifestFile != "" {
		manifest, err = secrets.LoadManifest(cfg.Secrets.ManifestFile)
		if err != nil {
			return err
		}
	}
	backend, err := secrets.NewBackend(ctx, cfg.Secrets)
	if err != nil {
		return fmt.Errorf("secret backend: %w", err)
	}
	store := secrets.NewStore(backend, manifest, secrets.StoreOptions{
		FetchTimeout: cfg.Secrets.FetchTimeout,
		Concurrency:  cfg.Secrets.Concurrency,
		Logger:       logger.With("component", "secrets"),
		Metrics:      rec,
	})
	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize secrets: %w", err)
	}

	a, err := app.New(ctx, app.Deps{
		Cfg:      cfg,
		Secrets:  store,
		Logger:   logger,
		Registry: reg,
		Metrics:  rec,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close clients", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsEnabled := cfg.TLSCertFile != ""
	logger.Info("HTTP API listening",
		"addr", cfg.ListenAddr, "tls", tlsEnabled, "env", cfg.Env,
		"verifier", cfg.Auth.Verifier, "secrets_backend", cfg.Secrets.Backend,
		"secrets_missing", len(store.Missing()))
	if !cfg.IsProduction() {
		scheme := "http"
		if tlsEnabled {
			scheme = "https"
		}
		logger.Info(fmt.Sprintf("try: curl %s://%s/readyz", scheme, curlHostForListenAddr(cfg.ListenAddr)))
	}

	return serve(ctx, srv, func() error {
		if tlsEnabled {
			return srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		}
		return srv.ListenAndServe()
	}, logger)
}

const shutdownTimeout = 15 * time.Second

// serve runs listen until ctx ends, then shuts srv down. It returns only
// after in-flight requests have drained, so the caller's deferred client
// Close and memguard.Purge never run under a live handler.
func serve(ctx context.Context, srv *http.Server, listen func() error, logger *slog.Logger) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	err := listen()
	switch {
	case errors.Is(err, http.ErrServerClosed):
		<-drained
		return nil
	case err != nil:
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// curlHostForListenAddr turns a listen address into a host:port a local
// curl can reach.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
