// Package cli implements jbctl, the operator CLI for the job-board API:
// secret manifest checks, database migrations and development tokens.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jobboard/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]string{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		output  string
		envFile string
	)

	rootCmd := &cobra.Command{
		Use:           "jbctl",
		Short:         "Job-board operator CLI",
		Long:          "Operator commands for the job-board API: secret checks, migrations, and development tokens.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			if envFile != "" {
				if err := config.LoadDotEnv(envFile); err != nil {
					return fmt.Errorf("load %s: %w", envFile, err)
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format: table or json")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Load variables from this file when present")

	rootCmd.AddCommand(
		newSecretsCmd(),
		newMigrateCmd(),
		newTokenCmd(),
		newVersionCmd(),
	)
	return rootCmd
}
