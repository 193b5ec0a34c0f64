package main

import (
	"github.com/spf13/cobra"
)

var buildQuery *queryFlags

var buildCmd = &cobra.Command{
	Use:     "build <collection>",
	Short:   "Print the list parameters a query translates to",
	GroupID: "query",
	Args:    cobra.ExactArgs(1),
	Example: `  pbq build users --search bob --sort -created
  pbq build posts --group pub:or="status = 'draft'" --group pub:or="status = 'live'" --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rq, err := resolveQuery(cmd, buildQuery, args[0], true)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), rq.Params)
		}
		printListOptions(cmd.OutOrStdout(), args[0], rq.Params)
		return nil
	},
}

func init() {
	buildQuery = addQueryFlags(buildCmd)
}
