package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scmportal/accounts-api/internal/pkg/config"
	"github.com/scmportal/accounts-api/pkg/logger"
)

const (
	appName = "scm-api"
	version = "1.0.0"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs once the root pre-run has finished.
type app struct {
	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "SCM portal accounts API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			a.cfg = cfg

			log := logger.Init(logger.Options{
				Level:   cfg.LogLevel,
				Pretty:  cfg.Debug,
				Service: cfg.Telemetry.ServiceName,
			})
			if cfg.UsingInsecureSecret() {
				log.Warn().Msg("SECRET_KEY is not set; using the insecure development key")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newMigrateCommand(a))
	cmd.AddCommand(newCreateSuperuserCommand(a))
	return cmd
}
