package domain

import "context"

// ProfileRepository reads and updates per-user profiles.
type ProfileRepository interface {
	GetRole(ctx context.Context, id string) (Role, error)
	Get(ctx context.Context, id string) (*Profile, error)
	List(ctx context.Context, page PageRequest) ([]Profile, int64, error)
	SetRole(ctx context.Context, id string, role Role) error
}

// UserRepository manages auth users. Deleting a user removes the profile and
// subscriptions that reference it.
type UserRepository interface {
	Create(ctx context.Context, id, email string, role Role) (*Profile, error)
	Delete(ctx context.Context, id string) error
}

// SubscriptionRepository mirrors billing subscriptions.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, s *Subscription) error
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]Subscription, error)
	UserIDByCustomer(ctx context.Context, customerID string) (string, error)
}
