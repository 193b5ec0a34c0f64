// Package client provides a transport-agnostic interface for a PocketBase
// records API and an HTTP/JSON implementation of it.
package client

import (
	"context"
	"encoding/json"

	"github.com/alfredjeanlab/pbquery/internal/query"
	"github.com/alfredjeanlab/pbquery/internal/schema"
)

// RecordsClient is the interface the pbq commands use to talk to the
// server. It is implemented by HTTPClient.
type RecordsClient interface {
	// Records
	ListRecords(ctx context.Context, collection string, page int, opts query.ListOptions) (*RecordList, error)
	ListAll(ctx context.Context, collection string, opts query.ListOptions) ([]Record, error)

	// Schema
	ListCollections(ctx context.Context) ([]schema.Collection, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// Record is a single record as returned by the API.
type Record map[string]any

// ID returns the record id, or "" when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Text returns the named field rendered for display.
func (r Record) Text(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// RecordList is one page of a list-records response.
type RecordList struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalItems int      `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
	Items      []Record `json:"items"`
}
