package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/domain"
	"jobboard/internal/identity"
)

// runCLI executes jbctl with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// cleanEnv clears the variables LoadFromEnv validates so ambient settings
// on the test host do not leak in.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ENV", "AUTH_VERIFIER", "DB_DRIVER", "DB_AUTO_MIGRATE", "GCP_PROJECT_ID",
		"TLS_CERT_FILE", "TLS_KEY_FILE", "BOOTSTRAP_ADMIN_ID", "BOOTSTRAP_ADMIN_EMAIL",
		"SECRETS_MANIFEST_FILE",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("SECRETS_BACKEND", "env")
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "jbctl version dev (commit: none)\n", out)

	out, err = runCLI(t, "-o", "json", "version")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"dev","commit":"none"}`, out)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := runCLI(t, "-o", "yaml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported output format "yaml"`)
}

func TestTokenMint(t *testing.T) {
	const secret = "cli-test-signing-secret"

	t.Run("verifies with the same secret", func(t *testing.T) {
		out, err := runCLI(t, "token", "mint", "--sub", "user-42", "--email", "dev@example.com", "--secret", secret)
		require.NoError(t, err)

		v, err := identity.NewHS256Verifier(secret)
		require.NoError(t, err)
		p, err := v.Verify(context.Background(), strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Equal(t, domain.Principal{ID: "user-42", Email: "dev@example.com"}, p)
	})

	t.Run("rejected under another secret", func(t *testing.T) {
		out, err := runCLI(t, "token", "mint", "--sub", "user-42", "--secret", secret)
		require.NoError(t, err)

		v, err := identity.NewHS256Verifier("some-other-secret")
		require.NoError(t, err)
		_, err = v.Verify(context.Background(), strings.TrimSpace(out))
		assert.True(t, domain.IsKind(err, domain.KindInvalidOrExpired))
	})

	t.Run("secret from environment", func(t *testing.T) {
		t.Setenv("SUPABASE_JWT_SECRET", secret)
		out, err := runCLI(t, "-o", "json", "token", "mint", "--sub", "user-7", "--expires", "5m")
		require.NoError(t, err)

		var got struct {
			Token     string `json:"token"`
			ExpiresAt string `json:"expires_at"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.NotEmpty(t, got.ExpiresAt)

		v, err := identity.NewHS256Verifier(secret)
		require.NoError(t, err)
		p, err := v.Verify(context.Background(), got.Token)
		require.NoError(t, err)
		assert.Equal(t, "user-7", p.ID)
	})

	t.Run("missing sub", func(t *testing.T) {
		_, err := runCLI(t, "token", "mint", "--secret", secret)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--sub is required")
	})

	t.Run("non-positive lifetime", func(t *testing.T) {
		_, err := runCLI(t, "token", "mint", "--sub", "u", "--secret", secret, "--expires=-1m")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--expires must be positive")
	})
}

func TestMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.sqlite")

	out, err := runCLI(t, "migrate", "up", "--driver", "sqlite3", "--dsn", path)
	require.NoError(t, err)
	assert.Equal(t, "migrations applied\n", out)

	out, err = runCLI(t, "-o", "json", "migrate", "status", "--driver", "sqlite3", "--dsn", path)
	require.NoError(t, err)

	var rows []struct {
		Version int64  `json:"version"`
		Source  string `json:"source"`
		Applied bool   `json:"applied"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.NotEmpty(t, rows)
	assert.Equal(t, int64(1), rows[0].Version)
	for _, r := range rows {
		assert.True(t, r.Applied, "migration %d not applied", r.Version)
	}

	out, err = runCLI(t, "migrate", "status", "--driver", "sqlite3", "--dsn", path)
	require.NoError(t, err)
	assert.Contains(t, out, "VERSION")
	assert.Contains(t, out, "00001_init.sql")
}

func TestMigrate_RequiresDSN(t *testing.T) {
	t.Setenv("DATABASE_ADMIN_URL", "")
	_, err := runCLI(t, "migrate", "up", "--driver", "sqlite3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_ADMIN_URL is required")
}

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSecretsCheck(t *testing.T) {
	cleanEnv(t)
	t.Setenv("JBCTL_TEST_PRESENT", "value-never-printed")
	t.Setenv("JBCTL_TEST_ABSENT", "")

	manifest := writeManifest(t, `secrets:
  - id: JBCTL_TEST_PRESENT
    name: PRESENT_NAME
    required: true
  - id: JBCTL_TEST_ABSENT
    name: ABSENT_NAME
`)

	t.Run("json report", func(t *testing.T) {
		out, err := runCLI(t, "-o", "json", "secrets", "check", "--manifest", manifest)
		require.NoError(t, err)
		assert.JSONEq(t, `{"backend":"env","present":["PRESENT_NAME"],"missing":["ABSENT_NAME"]}`, out)
		assert.NotContains(t, out, "value-never-printed")
	})

	t.Run("table report", func(t *testing.T) {
		out, err := runCLI(t, "secrets", "check", "--manifest", manifest)
		require.NoError(t, err)
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "STATUS")
		for _, line := range strings.Split(out, "\n") {
			switch {
			case strings.Contains(line, "PRESENT_NAME"):
				assert.Contains(t, line, "present")
				assert.Contains(t, line, "yes")
			case strings.Contains(line, "ABSENT_NAME"):
				assert.Contains(t, line, "missing")
				assert.NotContains(t, line, "yes")
			}
		}
		assert.NotContains(t, out, "value-never-printed")
	})

	t.Run("strict fails on optional gaps", func(t *testing.T) {
		_, err := runCLI(t, "secrets", "check", "--manifest", manifest, "--strict")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 secret(s) missing")
	})
}

func TestSecretsCheck_RequiredMissing(t *testing.T) {
	cleanEnv(t)
	t.Setenv("JBCTL_TEST_REQUIRED", "")

	manifest := writeManifest(t, `secrets:
  - id: JBCTL_TEST_REQUIRED
    required: true
`)
	out, err := runCLI(t, "-o", "json", "secrets", "check", "--manifest", manifest)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindSecretMissing))
	assert.JSONEq(t, `{"backend":"env","present":[],"missing":["JBCTL_TEST_REQUIRED"]}`, out)
}

func TestSecretsCheck_ClientKinds(t *testing.T) {
	cleanEnv(t)
	t.Setenv("JBCTL_TEST_ADMIN_DSN", "postgres://admin@db/jobboard")
	t.Setenv("JBCTL_TEST_STRIPE", "")

	manifest := writeManifest(t, `secrets:
  - id: JBCTL_TEST_ADMIN_DSN
    name: DATABASE_ADMIN_URL
  - id: JBCTL_TEST_STRIPE
    name: STRIPE_SECRET_KEY
`)

	out, err := runCLI(t, "-o", "json", "secrets", "check", "--manifest", manifest, "--kind", "db_admin")
	require.NoError(t, err)
	assert.JSONEq(t, `{"backend":"env","present":["DATABASE_ADMIN_URL"],"missing":["STRIPE_SECRET_KEY"],"kinds":{"db_admin":true}}`, out)
	assert.NotContains(t, out, "postgres://")

	_, err = runCLI(t, "secrets", "check", "--manifest", manifest, "--kind", "db_admin,billing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client kinds missing secrets: [billing]")

	_, err = runCLI(t, "secrets", "check", "--manifest", manifest, "--kind", "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown client kind "search"`)
}
