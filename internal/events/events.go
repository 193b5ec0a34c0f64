// Package events publishes notifications about executed queries, exports
// and schema syncs to an event bus.
package events

import (
	"context"
	"time"

	"github.com/alfredjeanlab/pbquery/internal/query"
)

// Event topic constants
const (
	TopicListExecuted    = "pbquery.list.executed"
	TopicExportCompleted = "pbquery.export.completed"
	TopicSchemaSynced    = "pbquery.schema.synced"

	// TopicAll matches every pbquery topic.
	TopicAll = "pbquery.>"
)

// Event types

type ListExecuted struct {
	Collection string            `json:"collection"`
	Options    query.ListOptions `json:"options"`
	Page       int               `json:"page"`
	Returned   int               `json:"returned"`
	TotalItems int               `json:"total_items"`
	Duration   time.Duration     `json:"duration"`
}

type ExportCompleted struct {
	Collection   string `json:"collection"`
	Filter       string `json:"filter,omitempty"`
	Records      int    `json:"records"`
	Bytes        int    `json:"bytes"`
	Destinations int    `json:"destinations"`
}

type SchemaSynced struct {
	Collections []string `json:"collections"`
	Target      string   `json:"target"` // "postgres", "file"
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
