package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newAPIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys for the HTTP transport",
	}
	cmd.AddCommand(newAPIKeyCreateCmd())
	return cmd
}

func newAPIKeyCreateCmd() *cobra.Command {
	var (
		userID      int64
		description string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue an API key acting as a user",
		Long:  "Issue an API key. The token is printed once; only its hash is stored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user is required")
			}
			return withDeps(cmd.Context(), func(d *deps) error {
				user, err := d.dir.GetUser(cmd.Context(), userID)
				if err != nil {
					return fmt.Errorf("user %d: %w", userID, err)
				}
				token, err := d.dir.CreateAPIKey(cmd.Context(), user.ID, description)
				if err != nil {
					return fmt.Errorf("creating api key: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "API key for %s: %s\n", user.Username, token)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User the key acts as (required)")
	cmd.Flags().StringVar(&description, "description", "", "Description of the key")

	return cmd
}
