package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/pbquery/internal/client"
	"github.com/alfredjeanlab/pbquery/internal/events"
)

var listQuery *queryFlags

var listCmd = &cobra.Command{
	Use:     "list <collection>",
	Short:   "List records matching a query",
	GroupID: "query",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		page, _ := cmd.Flags().GetInt("page")
		all, _ := cmd.Flags().GetBool("all")
		columns, _ := cmd.Flags().GetStringSlice("columns")

		rq, err := resolveQuery(cmd, listQuery, args[0], true)
		if err != nil {
			return err
		}

		start := time.Now()
		var list *client.RecordList
		if all {
			items, err := pbClient.ListAll(ctx, rq.Collection, rq.Params)
			if err != nil {
				return fmt.Errorf("listing %s: %w", rq.Collection, err)
			}
			list = &client.RecordList{Page: 1, PerPage: len(items), TotalItems: len(items), TotalPages: 1, Items: items}
		} else {
			list, err = pbClient.ListRecords(ctx, rq.Collection, page, rq.Params)
			if err != nil {
				return fmt.Errorf("listing %s: %w", rq.Collection, err)
			}
		}
		elapsed := time.Since(start)
		logger.Debug("list executed", "collection", rq.Collection, "returned", len(list.Items), "duration", elapsed)

		pub := newPublisher()
		defer pub.Close()
		if err := pub.Publish(ctx, events.TopicListExecuted, events.ListExecuted{
			Collection: rq.Collection,
			Options:    rq.Params,
			Page:       list.Page,
			Returned:   len(list.Items),
			TotalItems: list.TotalItems,
			Duration:   elapsed,
		}); err != nil {
			logger.Warn("publish list event failed", "err", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), list)
		}
		printRecordTable(cmd.OutOrStdout(), list, columns)
		return nil
	},
}

func init() {
	listQuery = addQueryFlags(listCmd)
	listCmd.Flags().Int("page", 1, "page number")
	listCmd.Flags().Bool("all", false, "fetch every page")
	listCmd.Flags().StringSlice("columns", nil, "columns to show (default: all top-level fields)")
}
