package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"jobboard/internal/clients"
	"jobboard/internal/config"
	"jobboard/internal/secrets"
)

func newSecretsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Secret manifest helpers",
	}
	cmd.AddCommand(newSecretsCheckCmd())
	return cmd
}

type secretsReport struct {
	Backend string   `json:"backend"`
	Present []string `json:"present"`
	Missing []string `json:"missing"`
	// Kinds reports, per requested client kind, whether every secret it is
	// built from resolved.
	Kinds map[string]bool `json:"kinds,omitempty"`
}

func newSecretsCheckCmd() *cobra.Command {
	var (
		manifestFile string
		strict       bool
		kindNames    []string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fetch the secret manifest and report which names resolved",
		Long: "Runs the same startup fetch the server performs against the configured backend " +
			"(SECRETS_BACKEND) and prints which logical names are present or missing. Values are never printed.",
		Example: `  # Check the production manifest in GCP Secret Manager
  SECRETS_BACKEND=gcp GCP_PROJECT_ID=jobboard-prod jbctl secrets check

  # Fail when any secret is missing
  jbctl secrets check --strict -o json

  # Verify the billing and storage clients could be built
  jbctl secrets check --kind billing --kind object_storage`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kinds := make([]clients.Kind, 0, len(kindNames))
			for _, n := range kindNames {
				k, err := clients.ParseKind(n)
				if err != nil {
					return err
				}
				kinds = append(kinds, k)
			}

			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if manifestFile == "" {
				manifestFile = cfg.Secrets.ManifestFile
			}
			manifest := secrets.DefaultManifest()
			if manifestFile != "" {
				if manifest, err = secrets.LoadManifest(manifestFile); err != nil {
					return err
				}
			}

			backend, err := secrets.NewBackend(cmd.Context(), cfg.Secrets)
			if err != nil {
				return fmt.Errorf("secret backend: %w", err)
			}
			store := secrets.NewStore(backend, manifest, secrets.StoreOptions{
				FetchTimeout: cfg.Secrets.FetchTimeout,
				Concurrency:  cfg.Secrets.Concurrency,
				Logger: slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
					&slog.HandlerOptions{Level: slog.LevelError})),
			})
			initErr := store.Initialize(cmd.Context())

			report := secretsReport{
				Backend: backend.Name(),
				Present: store.Present(),
				Missing: store.Missing(),
			}
			if report.Present == nil {
				report.Present = []string{}
			}
			if report.Missing == nil {
				report.Missing = []string{}
			}
			var unbuildable []string
			if len(kinds) > 0 {
				report.Kinds = make(map[string]bool, len(kinds))
				for _, k := range kinds {
					ok := true
					for _, name := range k.RequiredSecrets() {
						if v, err := store.Get(name); err != nil || v == "" {
							ok = false
						}
					}
					report.Kinds[string(k)] = ok
					if !ok {
						unbuildable = append(unbuildable, string(k))
					}
				}
			}

			if getOutputFormat(cmd) == "json" {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				missing := make(map[string]bool, len(report.Missing))
				for _, n := range report.Missing {
					missing[n] = true
				}
				rows := make([][]string, 0, len(manifest))
				for _, e := range manifest {
					status := "present"
					if missing[e.Name] {
						status = "missing"
					}
					required := ""
					if e.Required {
						required = "yes"
					}
					rows = append(rows, []string{e.Name, status, required})
				}
				if err := printTable(cmd.OutOrStdout(), []string{"NAME", "STATUS", "REQUIRED"}, rows); err != nil {
					return err
				}
			}

			if initErr != nil {
				return initErr
			}
			if len(unbuildable) > 0 {
				return fmt.Errorf("client kinds missing secrets: %v", unbuildable)
			}
			if strict && len(report.Missing) > 0 {
				return fmt.Errorf("%d secret(s) missing", len(report.Missing))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestFile, "manifest", "", "YAML manifest file (default: SECRETS_MANIFEST_FILE or built-in)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any secret is missing")
	cmd.Flags().StringSliceVar(&kindNames, "kind", nil, "Client kinds that must be constructible (db_admin, db_anon, billing, ai_embedding, object_storage)")
	return cmd
}
