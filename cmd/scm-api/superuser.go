package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scmportal/accounts-api/internal/core/domain"
	"github.com/scmportal/accounts-api/internal/core/ports"
	"github.com/scmportal/accounts-api/internal/core/service"
	"github.com/scmportal/accounts-api/pkg/logger"
)

func newCreateSuperuserCommand(a *app) *cobra.Command {
	var in ports.CreateSuperuserInput

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an active superuser account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger.Get()

			b, err := openBackend(ctx, a.cfg, log)
			if err != nil {
				return err
			}
			defer b.close()

			users := service.NewUserService(b.store, domain.DefaultPolicy(), log)
			u, err := users.CreateSuperuser(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created (id %d).\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "Plaintext password (min 8 characters)")
	cmd.Flags().StringVar(&in.Role, "role", domain.RoleSCMAdmin, "Role name; created when missing")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
