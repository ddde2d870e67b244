package secrets

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Logical secret names used by the service clients.
const (
	SupabaseURL            = "SUPABASE_URL"
	SupabaseAnonKey        = "SUPABASE_ANON_KEY"
	SupabaseServiceRoleKey = "SUPABASE_SERVICE_ROLE_KEY"
	SupabaseJWTSecret      = "SUPABASE_JWT_SECRET"
	DatabaseAdminURL       = "DATABASE_ADMIN_URL"
	DatabaseAnonURL        = "DATABASE_ANON_URL"
	OpenAIAPIKey           = "OPENAI_API_KEY"
	StripeSecretKey        = "STRIPE_SECRET_KEY"
	StripeWebhookSecret    = "STRIPE_WEBHOOK_SECRET"
	AdzunaAppID            = "ADZUNA_APP_ID"
	AdzunaAPIKey           = "ADZUNA_API_KEY"
	R2AccountID            = "R2_ACCOUNT_ID"
	R2AccessKeyID          = "R2_ACCESS_KEY_ID"
	R2SecretAccessKey      = "R2_SECRET_ACCESS_KEY"
	R2BucketName           = "R2_BUCKET_NAME"
	SentryDSN              = "SENTRY_DSN"
)

// ManifestEntry maps one external secret id to the logical name the
// application reads it under.
type ManifestEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
}

// Manifest is the fixed list of secrets fetched at startup.
type Manifest []ManifestEntry

// DefaultManifest returns the built-in manifest. External ids equal the
// logical names.
func DefaultManifest() Manifest {
	names := []string{
		SupabaseURL, SupabaseAnonKey, SupabaseServiceRoleKey, SupabaseJWTSecret,
		DatabaseAdminURL, DatabaseAnonURL,
		OpenAIAPIKey,
		StripeSecretKey, StripeWebhookSecret,
		AdzunaAppID, AdzunaAPIKey,
		R2AccountID, R2AccessKeyID, R2SecretAccessKey, R2BucketName,
		SentryDSN,
	}
	m := make(Manifest, 0, len(names))
	for _, n := range names {
		m = append(m, ManifestEntry{ID: n, Name: n})
	}
	return m
}

type manifestFile struct {
	Secrets Manifest `yaml:"secrets"`
}

// LoadManifest reads a YAML manifest of the form:
//
//	secrets:
//	  - id: prod-stripe-key
//	    name: STRIPE_SECRET_KEY
//	    required: true
//
// An empty path returns DefaultManifest.
func LoadManifest(path string) (Manifest, error) {
	if path == "" {
		return DefaultManifest(), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var f manifestFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	for i := range f.Secrets {
		if f.Secrets[i].Name == "" {
			f.Secrets[i].Name = f.Secrets[i].ID
		}
	}
	if err := f.Secrets.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return f.Secrets, nil
}

// Validate rejects empty ids and duplicate logical names.
func (m Manifest) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("manifest is empty")
	}
	seen := make(map[string]bool, len(m))
	for i, e := range m {
		if e.ID == "" {
			return fmt.Errorf("entry %d: id is required", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("entry %d: duplicate name %q", i, e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

// Names returns the logical names in manifest order.
func (m Manifest) Names() []string {
	out := make([]string, len(m))
	for i, e := range m {
		out[i] = e.Name
	}
	return out
}
