package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"jobboard/internal/db"
	"jobboard/internal/secrets"
)

func newMigrateCmd() *cobra.Command {
	var (
		driver string
		dsn    string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect profile-store migrations",
	}
	addDBFlags(cmd.PersistentFlags(), &driver, &dsn)

	open := func(cmd *cobra.Command) (*db.AdminDB, error) {
		d := driver
		if d == "" {
			d = os.Getenv("DB_DRIVER")
		}
		if d == "" {
			d = db.DriverPostgres
		}
		conn := dsn
		if conn == "" {
			conn = os.Getenv(secrets.DatabaseAdminURL)
		}
		if conn == "" {
			return nil, fmt.Errorf("--dsn or %s is required", secrets.DatabaseAdminURL)
		}
		return db.OpenAdmin(cmd.Context(), d, conn)
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			admin, err := open(cmd)
			if err != nil {
				return err
			}
			defer admin.Close() //nolint:errcheck

			if err := db.RunMigrations(cmd.Context(), admin); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"status": "ok"})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether each is applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			admin, err := open(cmd)
			if err != nil {
				return err
			}
			defer admin.Close() //nolint:errcheck

			list, err := db.Status(cmd.Context(), admin)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				type row struct {
					Version int64  `json:"version"`
					Source  string `json:"source"`
					Applied bool   `json:"applied"`
				}
				out := make([]row, 0, len(list))
				for _, m := range list {
					out = append(out, row{Version: m.Version, Source: m.Source, Applied: m.Applied})
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			rows := make([][]string, 0, len(list))
			for _, m := range list {
				rows = append(rows, []string{strconv.FormatInt(m.Version, 10), m.Source, strconv.FormatBool(m.Applied)})
			}
			return printTable(cmd.OutOrStdout(), []string{"VERSION", "SOURCE", "APPLIED"}, rows)
		},
	}

	cmd.AddCommand(up, status)
	return cmd
}

func addDBFlags(fs *pflag.FlagSet, driver, dsn *string) {
	fs.StringVar(driver, "driver", "", "Database driver: postgres or sqlite3 (default: DB_DRIVER or postgres)")
	fs.StringVar(dsn, "dsn", "", "Admin connection string or sqlite path (default: DATABASE_ADMIN_URL)")
}
