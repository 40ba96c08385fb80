package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-vocab/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <command>",
		Short:     "Run database migrations against the remote store",
		ValidArgs: postgres.MigrationCommands,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			log.Info("running migrations",
				slog.String("command", args[0]),
				slog.String("database_url", postgres.MaskDatabaseURL(cfg.Database.URL)))

			db, err := postgres.Open(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() { _ = db.Close() }()

			return postgres.Migrate(cmd.Context(), db, args[0], log)
		},
	}
}
