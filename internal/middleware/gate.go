// Package middleware provides the HTTP gates and ambient middleware
// (request ids, rate limiting, request logging).
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"jobboard/internal/domain"
	"jobboard/internal/metrics"
)

// TokenVerifier verifies a bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Principal, error)
}

// RoleResolver reads the current role for a principal.
type RoleResolver interface {
	Resolve(ctx context.Context, principalID string) (domain.Role, error)
}

// Gate authenticates requests and checks roles. It holds no per-request
// state; every request is verified and every role re-read.
type Gate struct {
	verifier TokenVerifier
	roles    RoleResolver
	logger   *slog.Logger
	metrics  *metrics.Recorder
}

// NewGate creates a Gate.
func NewGate(verifier TokenVerifier, roles RoleResolver, logger *slog.Logger, rec *metrics.Recorder) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{verifier: verifier, roles: roles, logger: logger, metrics: rec}
}

const bearerPrefix = "Bearer "

// bearerToken extracts the token from an exact "Bearer <token>" header.
func bearerToken(r *http.Request) (string, error) {
	const op = "gate.extract"
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", domain.E(domain.KindMissingToken, op, nil)
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", domain.E(domain.KindInvalidTokenFormat, op, nil)
	}
	return strings.TrimPrefix(header, bearerPrefix), nil
}

// Authenticate verifies the bearer token and attaches the principal to the
// request context before calling next. Any failure ends the request with 401.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err == nil {
			var p domain.Principal
			p, err = g.verifier.Verify(r.Context(), token)
			if err == nil && p.ID == "" {
				err = domain.E(domain.KindInvalidOrExpired, "gate.authenticate", errors.New("verifier returned no subject"))
			}
			if err == nil {
				g.metrics.GateDecision("authn", "ok")
				next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), p)))
				return
			}
		}

		kind := domain.KindOf(err)
		if kind != domain.KindMalformedToken && kind != domain.KindMissingToken &&
			kind != domain.KindInvalidTokenFormat {
			kind = domain.KindInvalidOrExpired
			err = domain.E(kind, "gate.authenticate", err)
		}
		g.metrics.GateDecision("authn", kind.String())
		g.logger.Debug("authentication rejected",
			"reason", kind.String(),
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err)
		WriteDomainError(w, err)
	})
}

// RequireRoles authenticates the request, then admits it only if the
// principal's current role is in allowed.
func (g *Gate) RequireRoles(allowed domain.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.Authenticate(g.authorize(allowed, next))
	}
}

func (g *Gate) authorize(allowed domain.RoleSet, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		p, ok := domain.PrincipalFromContext(ctx)
		if !ok {
			g.metrics.GateDecision("authz", domain.KindUnauthenticated.String())
			WriteDomainError(w, domain.E(domain.KindUnauthenticated, "gate.authorize", nil))
			return
		}

		role, err := g.roles.Resolve(ctx, p.ID)
		if err != nil {
			kind := domain.KindOf(err)
			if kind != domain.KindProfileNotFound {
				kind = domain.KindStoreError
				g.logger.Error("role lookup failed",
					"user_id", p.ID,
					"request_id", RequestIDFromContext(ctx),
					"error", err)
			}
			g.metrics.GateDecision("authz", kind.String())
			WriteDomainError(w, domain.E(kind, "gate.authorize", err))
			return
		}

		if !allowed.Contains(role) {
			g.metrics.GateDecision("authz", domain.KindForbidden.String())
			g.logger.Info("authorization denied",
				"user_id", p.ID,
				"role", string(role),
				"required", allowed.String(),
				"path", r.URL.Path)
			WriteDomainError(w, domain.E(domain.KindForbidden, "gate.authorize", nil))
			return
		}

		g.metrics.GateDecision("authz", "ok")
		next.ServeHTTP(w, r.WithContext(domain.WithRole(ctx, role)))
	})
}
