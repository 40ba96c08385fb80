package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/service/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("user")
			userID, err := uuid.Parse(raw)
			if err != nil || userID == uuid.Nil {
				return fmt.Errorf("invalid --user %q: expected a UUID", raw)
			}

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			jwtService, err := auth.NewJWTService(cfg.Auth)
			if err != nil {
				return fmt.Errorf("failed to initialize JWT service: %w", err)
			}

			token, err := jwtService.GenerateToken(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().String("user", "", "User ID the token identifies")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
