package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/pbquery/internal/events"
	"github.com/alfredjeanlab/pbquery/internal/schema"
	"github.com/alfredjeanlab/pbquery/internal/schema/postgres"
)

var schemaCmd = &cobra.Command{
	Use:     "schema",
	Short:   "Manage the collection schema used for default search fields",
	GroupID: "schema",
}

var schemaPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch collection models from the server (requires a superuser token)",
	Long: `Pull fetches every collection model and stores it in a TOML file
(--output, default --schema) and, when PBQ_DATABASE_URL is set, in the
PostgreSQL schema cache.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = schemaFile
		}
		if output == "" && cfg.DatabaseURL == "" {
			return fmt.Errorf("nowhere to store the schema: pass --output, --schema or set PBQ_DATABASE_URL")
		}

		collections, err := pbClient.ListCollections(ctx)
		if err != nil {
			return fmt.Errorf("fetching collections: %w", err)
		}
		names := make([]string, len(collections))
		for i, c := range collections {
			names[i] = c.Name
		}

		pub := newPublisher()
		defer pub.Close()

		if output != "" {
			if err := schema.WriteFile(output, collections); err != nil {
				return err
			}
			publishSchemaSynced(cmd, pub, names, "file")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d collections to %s\n", len(collections), output)
		}
		if cfg.DatabaseURL != "" {
			if err := saveToPostgres(cmd, collections); err != nil {
				return err
			}
			publishSchemaSynced(cmd, pub, names, "postgres")
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d collections in postgres\n", len(collections))
		}
		return nil
	},
}

var schemaImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a TOML schema file into the PostgreSQL schema cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("PBQ_DATABASE_URL is required for import")
		}
		reg, err := schema.LoadFile(args[0])
		if err != nil {
			return err
		}
		collections := reg.Collections()
		if err := saveToPostgres(cmd, collections); err != nil {
			return err
		}

		pub := newPublisher()
		defer pub.Close()
		publishSchemaSynced(cmd, pub, reg.Names(), "postgres")

		fmt.Fprintf(cmd.OutOrStdout(), "imported %d collections from %s\n", len(collections), args[0])
		return nil
	},
}

var schemaShowCmd = &cobra.Command{
	Use:   "show [collection]",
	Short: "Show known collections, or the fields of one collection",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := loadFields(cmd.Context(), true)
		if err != nil {
			return err
		}
		reg, ok := fields.(*schema.Registry)
		if !ok || reg == nil {
			return fmt.Errorf("no schema available: pass --schema, set PBQ_DATABASE_URL or use a superuser token")
		}

		if len(args) == 0 {
			collections := reg.Collections()
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), collections)
			}
			printCollectionTable(cmd.OutOrStdout(), collections)
			return nil
		}

		c, ok := reg.Collection(args[0])
		if !ok {
			return fmt.Errorf("collection %q not found", args[0])
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), c)
		}
		printCollection(cmd.OutOrStdout(), c)
		return nil
	},
}

var schemaForgetCmd = &cobra.Command{
	Use:   "forget <collection>",
	Short: "Remove a collection from the PostgreSQL schema cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("PBQ_DATABASE_URL is required")
		}
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.DeleteCollection(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "collection %q removed from cache\n", args[0])
		return nil
	},
}

func saveToPostgres(cmd *cobra.Command, collections []schema.Collection) error {
	store, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveCollections(cmd.Context(), collections...)
}

func publishSchemaSynced(cmd *cobra.Command, pub events.Publisher, names []string, target string) {
	err := pub.Publish(cmd.Context(), events.TopicSchemaSynced, events.SchemaSynced{Collections: names, Target: target})
	if err != nil {
		logger.Warn("publish schema event failed", "err", err)
	}
}

func init() {
	schemaPullCmd.Flags().StringP("output", "o", "", "TOML file to write (default --schema)")

	schemaCmd.AddCommand(schemaPullCmd)
	schemaCmd.AddCommand(schemaShowCmd)
	schemaCmd.AddCommand(schemaImportCmd)
	schemaCmd.AddCommand(schemaForgetCmd)
}
