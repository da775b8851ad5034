package cli

import (
	"fmt"

	"jobpilot/internal/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Apply the schema for resumes, applications and tests to the configured
database. Migrations are idempotent; serve and the client commands also run
them on start unless database.autoMigrate is false.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := getConfigFromContext(ctx)
		logger := getLoggerFromContext(ctx)

		db, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("Database schema is up to date", "driver", db.Driver())
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
		return nil
	},
}
