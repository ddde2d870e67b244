package api

import (
	"errors"
	"io"
	"net/http"

	"jobboard/internal/db/repository"
	"jobboard/internal/domain"
	"jobboard/internal/middleware"
	"jobboard/internal/secrets"
	"jobboard/internal/service/billing"
)

const maxWebhookBytes = 65536

// MsgBadSignature is returned for webhook deliveries that fail verification.
const MsgBadSignature = "Webhook signature verification failed"

// StripeWebhook handles POST /api/billing/webhooks. It is authorized by the
// Stripe-Signature header, not a bearer token.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	secret, err := h.secrets.Get(secrets.StripeWebhookSecret)
	if err == nil && secret == "" {
		err = domain.E(domain.KindSecretMissing, "api.webhook", errors.New(secrets.StripeWebhookSecret))
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}

	sub, eventType, err := billing.ParseEvent(payload, r.Header.Get("Stripe-Signature"), secret)
	if errors.Is(err, billing.ErrInvalidSignature) {
		h.logger.WarnContext(r.Context(), "webhook signature rejected", "error", err)
		middleware.WriteError(w, http.StatusBadRequest, MsgBadSignature)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if sub == nil {
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	admin, err := h.clients.AdminDB(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	svc := billing.NewSyncService(
		repository.NewSubscriptionRepo(admin.DB), repository.NewProfileRepo(admin.DB), h.logger)
	if _, err := svc.Apply(r.Context(), sub); err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			h.logger.WarnContext(r.Context(), "webhook subscription has no local owner",
				"event_type", string(eventType), "subscription", sub.ID)
			writeJSON(w, http.StatusOK, map[string]any{"received": true})
			return
		}
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}
