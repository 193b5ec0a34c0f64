package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check that the PocketBase server is reachable",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := pbClient.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("checking health of %s: %w", serverURL, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{"url": serverURL, "message": msg})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", serverURL, msg)
		return nil
	},
}
