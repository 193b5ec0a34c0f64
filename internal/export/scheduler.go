package export

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/pbquery/internal/client"
	"github.com/alfredjeanlab/pbquery/internal/events"
	"github.com/alfredjeanlab/pbquery/internal/query"
)

// Scheduler exports one query to a set of destinations, once or on an
// interval.
type Scheduler struct {
	client       client.RecordsClient
	query        query.Query
	fields       query.FieldLookup
	destinations []Destination
	interval     time.Duration
	publisher    events.Publisher
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler. A nil publisher disables events.
func NewScheduler(c client.RecordsClient, q query.Query, fields query.FieldLookup, destinations []Destination, interval time.Duration, publisher events.Publisher, logger *slog.Logger) *Scheduler {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	return &Scheduler{
		client:       c,
		query:        q,
		fields:       fields,
		destinations: destinations,
		interval:     interval,
		publisher:    publisher,
		logger:       logger,
	}
}

// RunOnce performs a single export. Every destination is attempted; the
// returned error joins the export error or all destination errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var buf bytes.Buffer
	res, err := ExportJSONL(ctx, s.client, s.query, s.fields, &buf)
	if err != nil {
		s.logger.Error("export failed", "collection", s.query.Collection, "err", err)
		return err
	}
	data := buf.Bytes()

	var errs []error
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			s.logger.Error("export destination write failed", "destination", dest.Name(), "err", err)
			errs = append(errs, err)
		}
	}

	s.logger.Info("export completed",
		"collection", s.query.Collection,
		"records", res.Records,
		"destinations", len(s.destinations),
		"bytes", len(data),
	)
	if err := s.publisher.Publish(ctx, events.TopicExportCompleted, events.ExportCompleted{
		Collection:   s.query.Collection,
		Filter:       res.Options.Filter,
		Records:      res.Records,
		Bytes:        len(data),
		Destinations: len(s.destinations) - len(errs),
	}); err != nil {
		s.logger.Warn("publish export event failed", "err", err)
	}
	return errors.Join(errs...)
}

// Start begins periodic export. It runs an initial export immediately,
// then on each tick. With an interval of zero or less only the initial
// export runs.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current export to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	_ = s.RunOnce(ctx)
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}
