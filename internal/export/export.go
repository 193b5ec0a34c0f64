// Package export writes the records matched by a query as JSONL and ships
// the result to one or more destinations, optionally on a schedule.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/pbquery/internal/client"
	"github.com/alfredjeanlab/pbquery/internal/query"
)

// FormatVersion is written in every export header.
const FormatVersion = "1"

// Header is the first JSONL line written by ExportJSONL.
type Header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Collection string    `json:"collection"`
	Filter     string    `json:"filter,omitempty"`
	Sort       string    `json:"sort,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Count      int       `json:"count"`
}

// Line wraps a single record line with a type discriminator.
type Line struct {
	Type string        `json:"type"`
	Data client.Record `json:"data"`
}

// Result summarizes a finished export.
type Result struct {
	Options query.ListOptions
	Records int
}

// ExportJSONL builds the list options for q, fetches every matching record
// and writes them as JSONL to w: a header line, then one line per record.
// Records keep the server order when q sorts, otherwise they are ordered by
// id so repeated exports diff cleanly.
func ExportJSONL(ctx context.Context, c client.RecordsClient, q query.Query, fields query.FieldLookup, w io.Writer) (Result, error) {
	opts, err := query.BuildListOptions(q, fields)
	if err != nil {
		return Result{}, err
	}

	records, err := c.ListAll(ctx, q.Collection, opts)
	if err != nil {
		return Result{}, fmt.Errorf("list %s: %w", q.Collection, err)
	}
	if opts.Sort == "" {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].ID() < records[j].ID()
		})
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(Header{
		Version:    FormatVersion,
		Type:       "header",
		Collection: q.Collection,
		Filter:     opts.Filter,
		Sort:       opts.Sort,
		Timestamp:  time.Now().UTC(),
		Count:      len(records),
	}); err != nil {
		return Result{}, fmt.Errorf("encode header: %w", err)
	}

	for _, r := range records {
		if err := enc.Encode(Line{Type: "record", Data: r}); err != nil {
			return Result{}, fmt.Errorf("encode record %s: %w", r.ID(), err)
		}
	}

	return Result{Options: opts, Records: len(records)}, nil
}
