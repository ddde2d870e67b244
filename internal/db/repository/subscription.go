package repository

import (
	"context"
	"database/sql"

	"jobboard/internal/domain"
)

type SubscriptionRepo struct {
	db *sql.DB
}

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// Upsert inserts or refreshes a subscription keyed by its Stripe id.
func (r *SubscriptionRepo) Upsert(ctx context.Context, s *domain.Subscription) error {
	if s.ID == "" {
		s.ID = domain.NewID()
	}
	var periodEnd sql.NullTime
	if s.CurrentPeriodEnd != nil {
		periodEnd = sql.NullTime{Time: *s.CurrentPeriodEnd, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions
			(id, user_id, plan_id, status, stripe_customer_id, stripe_subscription_id, current_period_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (stripe_subscription_id) DO UPDATE SET
			plan_id = excluded.plan_id,
			status = excluded.status,
			stripe_customer_id = excluded.stripe_customer_id,
			current_period_end = excluded.current_period_end,
			updated_at = CURRENT_TIMESTAMP`,
		s.ID, s.UserID, s.PlanID, s.Status, s.StripeCustomerID, s.StripeSubscriptionID, periodEnd)
	return mapDBError(err)
}

const subscriptionColumns = `id, user_id, plan_id, status, stripe_customer_id, stripe_subscription_id, current_period_end`

func scanSubscription(sc interface{ Scan(...any) error }) (*domain.Subscription, error) {
	var (
		s   domain.Subscription
		end sql.NullTime
	)
	if err := sc.Scan(&s.ID, &s.UserID, &s.PlanID, &s.Status, &s.StripeCustomerID, &s.StripeSubscriptionID, &end); err != nil {
		return nil, err
	}
	s.CurrentPeriodEnd = nullTime(end)
	return &s, nil
}

func (r *SubscriptionRepo) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE stripe_subscription_id = $1`, stripeSubscriptionID)
	s, err := scanSubscription(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return s, nil
}

func (r *SubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 ORDER BY stripe_subscription_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// UserIDByCustomer resolves the user that owns a Stripe customer.
func (r *SubscriptionRepo) UserIDByCustomer(ctx context.Context, customerID string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM subscriptions WHERE stripe_customer_id = $1 ORDER BY updated_at DESC LIMIT 1`,
		customerID).Scan(&userID)
	if err != nil {
		return "", mapDBError(err)
	}
	return userID, nil
}
