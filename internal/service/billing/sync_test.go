package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	internaldb "jobboard/internal/db"
	"jobboard/internal/db/repository"
	"jobboard/internal/domain"
)

const testWebhookSecret = "whsec_test"

func subscriptionEvent(eventType, subID, customer, status, userID string) []byte {
	metadata := "{}"
	if userID != "" {
		metadata = fmt.Sprintf(`{"user_id":%q}`, userID)
	}
	return []byte(fmt.Sprintf(`{
  "id": "evt_1",
  "object": "event",
  "api_version": "2025-03-31.basil",
  "type": %q,
  "data": {"object": {
    "id": %q,
    "object": "subscription",
    "customer": %q,
    "status": %q,
    "metadata": %s,
    "items": {"object": "list", "data": [
      {"id": "si_1", "object": "subscription_item", "current_period_end": 1767225600,
       "price": {"id": "price_pro", "object": "price"}}
    ]}
  }}
}`, eventType, subID, customer, status, metadata))
}

func sign(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	}).Header
}

type fixture struct {
	svc      *SyncService
	users    *repository.UserRepo
	profiles *repository.ProfileRepo
	subs     *repository.SubscriptionRepo
}

func setup(t *testing.T) fixture {
	t.Helper()
	admin, _ := internaldb.OpenTestSQLite(t)
	f := fixture{
		users:    repository.NewUserRepo(admin.DB),
		profiles: repository.NewProfileRepo(admin.DB),
		subs:     repository.NewSubscriptionRepo(admin.DB),
	}
	f.svc = NewSyncService(f.subs, f.profiles, nil)
	return f
}

func parse(t *testing.T, payload []byte) *stripe.Subscription {
	t.Helper()
	sub, _, err := ParseEvent(payload, sign(payload, testWebhookSecret), testWebhookSecret)
	require.NoError(t, err)
	require.NotNil(t, sub)
	return sub
}

func TestParseEvent(t *testing.T) {
	payload := subscriptionEvent("customer.subscription.created", "sub_1", "cus_1", "active", "u1")

	t.Run("valid_signature", func(t *testing.T) {
		sub, typ, err := ParseEvent(payload, sign(payload, testWebhookSecret), testWebhookSecret)
		require.NoError(t, err)
		assert.Equal(t, stripe.EventType("customer.subscription.created"), typ)
		assert.Equal(t, "sub_1", sub.ID)
		assert.Equal(t, "cus_1", sub.Customer.ID)
		assert.Equal(t, "u1", sub.Metadata[MetadataUserID])
	})

	t.Run("wrong_secret", func(t *testing.T) {
		_, _, err := ParseEvent(payload, sign(payload, "whsec_other"), testWebhookSecret)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing_header", func(t *testing.T) {
		_, _, err := ParseEvent(payload, "", testWebhookSecret)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("tampered_body", func(t *testing.T) {
		header := sign(payload, testWebhookSecret)
		tampered := subscriptionEvent("customer.subscription.created", "sub_1", "cus_1", "active", "attacker")
		_, _, err := ParseEvent(tampered, header, testWebhookSecret)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("other_event_ignored", func(t *testing.T) {
		other := []byte(`{"id":"evt_2","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`)
		sub, typ, err := ParseEvent(other, sign(other, testWebhookSecret), testWebhookSecret)
		require.NoError(t, err)
		assert.Nil(t, sub)
		assert.Equal(t, stripe.EventType("invoice.paid"), typ)
	})
}

func TestNextRole(t *testing.T) {
	tests := []struct {
		current domain.Role
		status  string
		want    domain.Role
	}{
		{domain.RoleFree, "active", domain.RolePro},
		{domain.RoleFree, "trialing", domain.RolePro},
		{domain.RoleFree, "canceled", domain.RoleFree},
		{domain.RolePro, "canceled", domain.RoleFree},
		{domain.RolePro, "unpaid", domain.RoleFree},
		{domain.RolePro, "incomplete_expired", domain.RoleFree},
		{domain.RolePro, "past_due", domain.RolePro},
		{domain.RolePro, "active", domain.RolePro},
		{domain.RoleAdmin, "canceled", domain.RoleAdmin},
		{domain.RoleRecruiter, "active", domain.RoleRecruiter},
		{domain.Role(""), "active", domain.Role("")},
	}
	for _, tc := range tests {
		t.Run(string(tc.current)+"/"+tc.status, func(t *testing.T) {
			assert.Equal(t, tc.want, NextRole(tc.current, tc.status))
		})
	}
}

func TestSyncService_UpgradeThenDowngrade(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "u1", "u1@example.com", domain.RoleFree)
	require.NoError(t, err)

	out, err := f.svc.Apply(ctx, parse(t, subscriptionEvent("customer.subscription.created", "sub_1", "cus_1", "active", "u1")))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFree, out.RoleBefore)
	assert.Equal(t, domain.RolePro, out.RoleAfter)

	role, err := f.profiles.GetRole(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RolePro, role)

	row, err := f.subs.GetByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "price_pro", row.PlanID)
	assert.Equal(t, "cus_1", row.StripeCustomerID)
	require.NotNil(t, row.CurrentPeriodEnd)
	assert.Equal(t, int64(1767225600), row.CurrentPeriodEnd.Unix())

	// The deletion event carries no metadata; the owner is found by customer.
	out, err = f.svc.Apply(ctx, parse(t, subscriptionEvent("customer.subscription.deleted", "sub_1", "cus_1", "canceled", "")))
	require.NoError(t, err)
	assert.Equal(t, "u1", out.UserID)
	assert.Equal(t, domain.RoleFree, out.RoleAfter)

	role, err = f.profiles.GetRole(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFree, role)

	subs, err := f.subs.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "canceled", subs[0].Status)
}

func TestSyncService_AdminRoleUntouched(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "boss", "boss@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	out, err := f.svc.Apply(ctx, parse(t, subscriptionEvent("customer.subscription.deleted", "sub_9", "cus_9", "canceled", "boss")))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, out.RoleAfter)

	role, err := f.profiles.GetRole(ctx, "boss")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestSyncService_UnknownOwner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, parse(t, subscriptionEvent("customer.subscription.created", "sub_2", "cus_unknown", "active", "")))
	require.Error(t, err)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = f.svc.Apply(ctx, &stripe.Subscription{})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSyncService_UserWithoutProfileRow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, parse(t, subscriptionEvent("customer.subscription.created", "sub_3", "cus_3", "active", "ghost")))
	require.Error(t, err)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Message, `"ghost"`)

	_, err = f.subs.GetByStripeID(ctx, "sub_3")
	assert.ErrorAs(t, err, &nf)
}
