package main

import (
	"github.com/spf13/cobra"

	"github.com/scmportal/accounts-api/pkg/logger"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed the default roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger.Get()

			b, err := openBackend(ctx, a.cfg, log)
			if err != nil {
				return err
			}
			defer b.close()

			if err := b.migrate(ctx, log); err != nil {
				return err
			}
			log.Info().Str("store", a.cfg.StoreDriver).Msg("migrations applied")
			return nil
		},
	}
}
