package export

import (
	"context"
	"errors"
	"sync"

	"github.com/alfredjeanlab/pbquery/internal/client"
	"github.com/alfredjeanlab/pbquery/internal/query"
	"github.com/alfredjeanlab/pbquery/internal/schema"
)

// fakeClient is an in-memory RecordsClient that serves a fixed record set
// per collection and records the options of every ListAll call.
type fakeClient struct {
	mu      sync.Mutex
	records map[string][]client.Record
	calls   []query.ListOptions
	err     error
}

func newFakeClient() *fakeClient {
	return &fakeClient{records: map[string][]client.Record{}}
}

func (f *fakeClient) ListRecords(_ context.Context, collection string, page int, opts query.ListOptions) (*client.RecordList, error) {
	items, err := f.ListAll(context.Background(), collection, opts)
	if err != nil {
		return nil, err
	}
	return &client.RecordList{Page: 1, PerPage: len(items), TotalItems: len(items), TotalPages: 1, Items: items}, nil
}

func (f *fakeClient) ListAll(_ context.Context, collection string, opts query.ListOptions) ([]client.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, opts)
	if f.err != nil {
		return nil, f.err
	}
	src := f.records[collection]
	out := make([]client.Record, len(src))
	copy(out, src)
	return out, nil
}

func (f *fakeClient) ListCollections(context.Context) ([]schema.Collection, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) Health(context.Context) (string, error) { return "ok", nil }

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) lastCall() query.ListOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return query.ListOptions{}
	}
	return f.calls[len(f.calls)-1]
}

var usersFields = query.FieldLookupFunc(func(name string) []string {
	if name == "users" {
		return []string{"name", "email"}
	}
	return nil
})
