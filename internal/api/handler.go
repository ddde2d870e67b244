// Package api exposes the HTTP route families behind the authentication and
// authorization gates.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stripe/stripe-go/v82/client"

	"jobboard/internal/clients"
	"jobboard/internal/db"
	"jobboard/internal/domain"
)

// ClientSource hands out the secret-backed clients. *clients.Factory
// satisfies it.
type ClientSource interface {
	AdminDB(ctx context.Context) (*db.AdminDB, error)
	AnonDB(ctx context.Context) (*db.AnonDB, error)
	Billing(ctx context.Context) (*client.API, error)
	AI(ctx context.Context) (*openai.Client, error)
	ObjectStorage(ctx context.Context) (*clients.R2Presigner, error)
}

// SecretSource is the read side of the secret store. *secrets.Store
// satisfies it.
type SecretSource interface {
	Get(name string) (string, error)
	Initialized() bool
}

// Options tunes handler behaviour.
type Options struct {
	UploadExpiry time.Duration // presigned upload lifetime (default 15m)
	ReadyTimeout time.Duration // bound on the readiness database ping (default 2s)
	Now          func() time.Time
}

// Handler implements every route. It holds no per-request or per-user
// state; clients come from the factory on each call.
type Handler struct {
	clients ClientSource
	secrets SecretSource
	logger  *slog.Logger
	opts    Options
}

// NewHandler creates a Handler.
func NewHandler(cs ClientSource, ss SecretSource, logger *slog.Logger, opts Options) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.UploadExpiry <= 0 {
		opts.UploadExpiry = 15 * time.Minute
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 2 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{clients: cs, secrets: ss, logger: logger, opts: opts}
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ErrValidation("invalid request body")
	}
	return nil
}

// principal returns the verified caller. The gates guarantee one exists on
// every route that calls this.
func principal(r *http.Request) (domain.Principal, error) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		return domain.Principal{}, domain.E(domain.KindUnauthenticated, "api.principal", errors.New("no principal on request"))
	}
	return p, nil
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readiness struct {
	DB      string `json:"db"`
	Secrets string `json:"secrets"`
	Time    string `json:"time"`
}

// Readyz reports whether the secret store is initialized and the anonymous
// database client answers a ping.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	out := readiness{DB: "ok", Secrets: "ok", Time: h.opts.Now().UTC().Format(time.RFC3339)}

	if !h.secrets.Initialized() {
		out.Secrets = "err"
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.ReadyTimeout)
	defer cancel()
	anon, err := h.clients.AnonDB(ctx)
	if err == nil {
		err = anon.PingContext(ctx)
	}
	if err != nil {
		h.logger.WarnContext(r.Context(), "readiness database check failed", "error", err)
		out.DB = "err"
	}

	status := http.StatusOK
	if out.DB != "ok" || out.Secrets != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, out)
}
