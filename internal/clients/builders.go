package clients

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/stripe/stripe-go/v82/client"

	"jobboard/internal/db"
	"jobboard/internal/secrets"
)

func defaultBuilders(driver string) map[Kind]Builder {
	if driver == "" {
		driver = db.DriverPostgres
	}
	return map[Kind]Builder{
		KindDBAdmin: func(ctx context.Context, creds map[string]string) (any, error) {
			return db.OpenAdmin(ctx, driver, creds[secrets.DatabaseAdminURL])
		},
		KindDBAnon: func(ctx context.Context, creds map[string]string) (any, error) {
			return db.OpenAnon(ctx, driver, creds[secrets.DatabaseAnonURL])
		},
		KindBilling: func(_ context.Context, creds map[string]string) (any, error) {
			return client.New(creds[secrets.StripeSecretKey], nil), nil
		},
		KindAIEmbedding: func(_ context.Context, creds map[string]string) (any, error) {
			return openai.NewClient(creds[secrets.OpenAIAPIKey]), nil
		},
		KindObjectStorage: func(_ context.Context, creds map[string]string) (any, error) {
			return NewR2Presigner(R2Config{
				AccountID:       creds[secrets.R2AccountID],
				AccessKeyID:     creds[secrets.R2AccessKeyID],
				SecretAccessKey: creds[secrets.R2SecretAccessKey],
				Bucket:          creds[secrets.R2BucketName],
			})
		},
	}
}

// AdminDB returns the service-role database client. Callers must already
// be behind an authorization gate.
func (f *Factory) AdminDB(ctx context.Context) (*db.AdminDB, error) {
	return typed[*db.AdminDB](f, ctx, KindDBAdmin)
}

// AnonDB returns the anonymous-role database client.
func (f *Factory) AnonDB(ctx context.Context) (*db.AnonDB, error) {
	return typed[*db.AnonDB](f, ctx, KindDBAnon)
}

// Billing returns the Stripe client.
func (f *Factory) Billing(ctx context.Context) (*client.API, error) {
	return typed[*client.API](f, ctx, KindBilling)
}

// AI returns the embedding client.
func (f *Factory) AI(ctx context.Context) (*openai.Client, error) {
	return typed[*openai.Client](f, ctx, KindAIEmbedding)
}

// ObjectStorage returns the R2 presigner.
func (f *Factory) ObjectStorage(ctx context.Context) (*R2Presigner, error) {
	return typed[*R2Presigner](f, ctx, KindObjectStorage)
}

// ParseKind parses a kind name as used on the jbctl command line.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown client kind %q", s)
}
