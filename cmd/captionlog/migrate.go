package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			// withDeps migrates before handing over the dependencies.
			return withDeps(cmd.Context(), func(d *deps) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Database migrated (%s)\n", d.db.Driver)
				return nil
			})
		},
	}
}
