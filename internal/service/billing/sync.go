// Package billing keeps subscription rows and paid roles in step with Stripe.
// Role changes made here are observed by the authorization gate on the next
// request because roles are never cached.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"jobboard/internal/domain"
)

// ErrInvalidSignature is returned when a webhook payload does not carry a
// valid Stripe-Signature for the configured secret.
var ErrInvalidSignature = errors.New("billing: invalid webhook signature")

// MetadataUserID is the subscription metadata key that links a Stripe
// subscription to a user id.
const MetadataUserID = "user_id"

const subscriptionEventPrefix = "customer.subscription."

// ParseEvent verifies a webhook delivery and decodes the subscription it
// carries. Events that are not customer.subscription.* return a nil
// subscription and no error.
func ParseEvent(payload []byte, signatureHeader, secret string) (*stripe.Subscription, stripe.EventType, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !strings.HasPrefix(string(event.Type), subscriptionEventPrefix) {
		return nil, event.Type, nil
	}
	if event.Data == nil {
		return nil, event.Type, domain.ErrValidation("event %s has no data", event.ID)
	}
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, event.Type, domain.ErrValidation("decode subscription: %v", err)
	}
	return &sub, event.Type, nil
}

// Outcome reports what one sync changed.
type Outcome struct {
	UserID     string
	Status     string
	RoleBefore domain.Role
	RoleAfter  domain.Role
}

// SyncService applies Stripe subscription state to the profile store.
type SyncService struct {
	subs     domain.SubscriptionRepository
	profiles domain.ProfileRepository
	logger   *slog.Logger
}

// NewSyncService creates a SyncService.
func NewSyncService(subs domain.SubscriptionRepository, profiles domain.ProfileRepository, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{subs: subs, profiles: profiles, logger: logger}
}

// Apply upserts the subscription row and moves the owner between the free
// and pro roles. Other roles are left alone.
func (s *SyncService) Apply(ctx context.Context, sub *stripe.Subscription) (*Outcome, error) {
	if sub == nil || sub.ID == "" {
		return nil, domain.ErrValidation("subscription id is required")
	}

	var customerID string
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}
	userID := sub.Metadata[MetadataUserID]
	if userID == "" && customerID != "" {
		id, err := s.subs.UserIDByCustomer(ctx, customerID)
		if err != nil {
			return nil, err
		}
		userID = id
	}
	if userID == "" {
		return nil, domain.ErrNotFound("no user for subscription %q", sub.ID)
	}

	// Roles live on the profile; a subscription for a user without one has
	// no local owner to sync.
	before, err := s.profiles.GetRole(ctx, userID)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return nil, domain.ErrNotFound("no local owner %q for subscription %q", userID, sub.ID)
		}
		return nil, err
	}

	row := &domain.Subscription{
		UserID:               userID,
		Status:               string(sub.Status),
		StripeCustomerID:     customerID,
		StripeSubscriptionID: sub.ID,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			row.PlanID = item.Price.ID
		}
		if item.CurrentPeriodEnd > 0 {
			end := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			row.CurrentPeriodEnd = &end
		}
	}
	if err := s.subs.Upsert(ctx, row); err != nil {
		// The owner was deleted between the role read and the upsert.
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return nil, domain.ErrNotFound("no local owner %q for subscription %q", userID, sub.ID)
		}
		return nil, fmt.Errorf("upsert subscription %s: %w", sub.ID, err)
	}

	after := NextRole(before, row.Status)
	if after != before {
		if err := s.profiles.SetRole(ctx, userID, after); err != nil {
			return nil, err
		}
		s.logger.Info("subscription role change",
			"user_id", userID, "subscription", sub.ID, "status", row.Status,
			"from", string(before), "to", string(after))
	}

	return &Outcome{UserID: userID, Status: row.Status, RoleBefore: before, RoleAfter: after}, nil
}

var endedStatuses = map[string]bool{
	string(stripe.SubscriptionStatusCanceled):          true,
	string(stripe.SubscriptionStatusUnpaid):            true,
	string(stripe.SubscriptionStatusIncompleteExpired): true,
}

// NextRole returns the role a profile should hold after a subscription
// moves to status. Only free and pro are ever changed.
func NextRole(current domain.Role, status string) domain.Role {
	switch {
	case current == domain.RoleFree && domain.SubscriptionActive(status):
		return domain.RolePro
	case current == domain.RolePro && endedStatuses[status]:
		return domain.RoleFree
	default:
		return current
	}
}
