package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/pbquery/internal/export"
)

var exportQuery *queryFlags

var exportCmd = &cobra.Command{
	Use:     "export <collection>",
	Short:   "Export every record matching a query as JSONL",
	GroupID: "query",
	Args:    cobra.ExactArgs(1),
	Long: `Export writes a header line followed by one JSON record per line.

Destinations are --output (a local file, replaced atomically) and the S3
bucket named by PBQ_EXPORT_S3_BUCKET. With neither, the export goes to
stdout. A positive --interval keeps exporting until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		output, _ := cmd.Flags().GetString("output")
		interval, _ := cmd.Flags().GetDuration("interval")
		if !cmd.Flags().Changed("interval") {
			interval = cfg.ExportInterval
		}

		rq, err := resolveQuery(cmd, exportQuery, args[0], true)
		if err != nil {
			return err
		}

		var dests []export.Destination
		if output != "" {
			dests = append(dests, &export.FileDestination{Path: output})
		}
		if cfg.ExportS3Bucket != "" {
			s3Dest, err := export.NewS3Destination(ctx, cfg.ExportS3Bucket, cfg.ExportS3Key, cfg.ExportS3Region, cfg.ExportS3Endpoint)
			if err != nil {
				return fmt.Errorf("creating S3 destination: %w", err)
			}
			dests = append(dests, s3Dest)
			logger.Info("export S3 destination enabled", "bucket", cfg.ExportS3Bucket, "key", cfg.ExportS3Key)
		}
		if len(dests) == 0 {
			dests = append(dests, &export.WriterDestination{File: os.Stdout})
		}

		pub := newPublisher()
		defer pub.Close()

		sched := export.NewScheduler(pbClient, rq.Query, rq.Fields, dests, interval, pub, logger)
		if interval <= 0 {
			return sched.RunOnce(ctx)
		}

		sched.Start()
		logger.Info("export scheduler started", "collection", rq.Collection, "interval", interval)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, stopping export", "signal", sig)
		sched.Stop()
		return nil
	},
}

func init() {
	exportQuery = addQueryFlags(exportCmd)
	exportCmd.Flags().StringP("output", "o", "", "write the export to this file")
	exportCmd.Flags().Duration("interval", 0*time.Second, "repeat the export at this interval (default PBQ_EXPORT_INTERVAL)")
}
