package main

import (
	"fmt"

	"github.com/dkeye/Consult/internal/adapters/auth"
	"github.com/dkeye/Consult/internal/config"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/spf13/cobra"
)

func newTokenCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	var userID, roleName string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user and role",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			role, err := domain.ParseRole(roleName)
			if err != nil {
				return fmt.Errorf("--role: %w", err)
			}
			user, err := domain.NewUser(userID, role)
			if err != nil {
				return fmt.Errorf("--user: %w", err)
			}
			codec, err := auth.NewTokenCodec(cfg.Secret, cfg.TokenTTL)
			if err != nil {
				return err
			}
			token, err := codec.Issue(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id")
	cmd.Flags().StringVar(&roleName, "role", "patient", "Role: clinician (doctor) or patient")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
