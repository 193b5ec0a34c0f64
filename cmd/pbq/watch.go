package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/pbquery/internal/events"
	"github.com/alfredjeanlab/pbquery/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch [topic]",
	Short:   "Stream query, export and schema events",
	GroupID: "query",
	Args:    cobra.MaximumNArgs(1),
	Long: `Watch subscribes to the events pbq publishes on NATS (PBQ_NATS_URL or
the active profile) and prints them as they arrive. The topic defaults to
every pbquery topic; wildcards such as pbquery.export.* are allowed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.NATSURL == "" {
			return fmt.Errorf("no NATS URL configured: set PBQ_NATS_URL or add one to the active profile")
		}
		topic := events.TopicAll
		if len(args) == 1 {
			topic = args[0]
		}
		limit, _ := cmd.Flags().GetInt("count")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(cfg.NATSURL, logger,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("nats disconnected", "err", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				logger.Info("nats reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		defer cancel()
		logger.Debug("watching", "topic", topic, "nats_url", cfg.NATSURL)

		return watchEvents(ctx, ch, cmd.OutOrStdout(), limit)
	},
}

// watchEvents prints messages until ctx ends, the channel closes, or limit
// messages (when positive) have been printed.
func watchEvents(ctx context.Context, ch <-chan events.Message, w io.Writer, limit int) error {
	for n := 0; limit <= 0 || n < limit; n++ {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := printEvent(w, msg, eventTime(msg)); err != nil {
				return err
			}
		}
	}
	return nil
}

// eventTime is when msg was published, or now for messages without a
// send stamp.
func eventTime(msg events.Message) time.Time {
	if msg.Sent.IsZero() {
		return time.Now()
	}
	return msg.Sent.Local()
}

func printEvent(w io.Writer, msg events.Message, at time.Time) error {
	if jsonOutput {
		line, err := json.Marshal(struct {
			Topic string          `json:"topic"`
			Data  json.RawMessage `json:"data"`
		}{msg.Topic, validJSON(msg.Data)})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(line))
		return err
	}

	var compact bytes.Buffer
	payload := string(msg.Data)
	if json.Compact(&compact, msg.Data) == nil {
		payload = compact.String()
	}
	_, err := fmt.Fprintf(w, "%s %s %s\n", ui.RenderMuted(at.Format("15:04:05")), ui.RenderAccent(msg.Topic), payload)
	return err
}

// validJSON returns data unchanged when it is JSON, or quotes it as a string.
func validJSON(data []byte) json.RawMessage {
	if json.Valid(data) {
		return data
	}
	quoted, _ := json.Marshal(string(data))
	return quoted
}

func init() {
	watchCmd.Flags().Int("count", 0, "exit after this many events (0 = until interrupted)")
}
