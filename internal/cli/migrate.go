package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/show-logic-core/internal/infrastructure/config"
	"github.com/nerrad567/show-logic-core/internal/infrastructure/database"
	"github.com/nerrad567/show-logic-core/migrations"
)

func newMigrateCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := openConfiguredDB(opts)
				if err != nil {
					return err
				}
				defer db.Close()

				if err := db.Migrate(cmd.Context(), migrations.FS); err != nil {
					return fmt.Errorf("running migrations: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := openConfiguredDB(opts)
				if err != nil {
					return err
				}
				defer db.Close()

				if err := db.MigrateDown(cmd.Context(), migrations.FS); err != nil {
					return fmt.Errorf("rolling back: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "latest migration rolled back")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := openConfiguredDB(opts)
				if err != nil {
					return err
				}
				defer db.Close()

				applied, pending, err := db.MigrationStatus(cmd.Context(), migrations.FS)
				if err != nil {
					return fmt.Errorf("reading migration status: %w", err)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tSTATE\tDETAIL")
				for _, r := range applied {
					fmt.Fprintf(w, "%s\tapplied\t%s\n", r.Version, r.AppliedAt.Format("2006-01-02 15:04:05"))
				}
				for _, m := range pending {
					fmt.Fprintf(w, "%s\tpending\t%s\n", m.Version, m.Name)
				}
				return w.Flush()
			},
		},
	)
	return cmd
}

// openConfiguredDB opens the configured database without migrating it.
func openConfiguredDB(opts *options) (*database.DB, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	return openDB(cfg)
}

func openDB(cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}
