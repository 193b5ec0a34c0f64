package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/pbquery/internal/client"
	"github.com/alfredjeanlab/pbquery/internal/config"
	"github.com/alfredjeanlab/pbquery/internal/events"
	"github.com/alfredjeanlab/pbquery/internal/query"
	"github.com/alfredjeanlab/pbquery/internal/schema"
	"github.com/alfredjeanlab/pbquery/internal/schema/postgres"
)

var (
	cfg    *config.Config
	cfgErr error

	serverURL  string
	token      string
	schemaFile string
	jsonOutput bool
	verbose    bool

	logger   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	pbClient client.RecordsClient
)

var rootCmd = &cobra.Command{
	Use:           "pbq <command>",
	Short:         "Build and run PocketBase list queries",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgErr != nil {
			return cfgErr
		}
		if verbose {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
		pbClient = client.NewHTTPClient(serverURL,
			client.WithToken(token),
			client.WithTimeout(cfg.Timeout),
		)
		logger.Debug("client ready", "url", serverURL, "profile", cfg.Profile)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if pbClient != nil {
			pbClient.Close()
		}
	},
}

// loadFields resolves collection fields for the default search scope. The
// sources are tried in order: --schema file, PBQ_DATABASE_URL cache, then
// the server itself when remote is set. A failed remote lookup is logged
// and yields no default scope.
func loadFields(ctx context.Context, remote bool) (query.FieldLookup, error) {
	if schemaFile != "" {
		reg, err := schema.LoadFile(schemaFile)
		if err != nil {
			return nil, err
		}
		logger.Debug("schema loaded", "file", schemaFile, "collections", len(reg.Names()))
		return reg, nil
	}

	if cfg.DatabaseURL != "" {
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		reg, err := store.LoadRegistry(ctx)
		if err != nil {
			return nil, err
		}
		logger.Debug("schema loaded", "source", "postgres", "collections", len(reg.Names()))
		return reg, nil
	}

	if !remote {
		return nil, nil
	}
	collections, err := pbClient.ListCollections(ctx)
	if err != nil {
		logger.Warn("could not fetch collection schema", "err", err)
		return nil, nil
	}
	return schema.NewRegistry(collections...), nil
}

// newPublisher connects to NATS when configured, otherwise events are
// dropped.
func newPublisher() events.Publisher {
	if cfg.NATSURL == "" {
		return &events.NoopPublisher{}
	}
	pub, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		logger.Warn("events disabled", "nats_url", cfg.NATSURL, "err", err)
		return &events.NoopPublisher{}
	}
	logger.Debug("events enabled", "nats_url", cfg.NATSURL)
	return pub
}

func init() {
	cfg, cfgErr = config.Load()
	if cfgErr != nil {
		cfg = &config.Config{URL: config.DefaultURL, Timeout: 30 * time.Second}
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "url", cfg.URL, "PocketBase server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", cfg.Token, "auth token sent in the Authorization header")
	rootCmd.PersistentFlags().StringVar(&schemaFile, "schema", cfg.SchemaFile, "TOML collection schema used for default search fields")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "query", Title: "Queries:"},
		&cobra.Group{ID: "schema", Title: "Schema:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Queries
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)

	// Schema
	rootCmd.AddCommand(schemaCmd)

	// System
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(profileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
