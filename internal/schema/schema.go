// Package schema holds the collection models a query is built against: the
// field names of each collection, used to resolve the default search scope.
package schema

import (
	"slices"
	"sort"
	"sync"
)

// CollectionType is the PocketBase collection type.
type CollectionType string

const (
	TypeBase CollectionType = "base"
	TypeAuth CollectionType = "auth"
	TypeView CollectionType = "view"
)

// Field is a single collection field.
type Field struct {
	Name   string `json:"name" toml:"name"`
	Type   string `json:"type" toml:"type,omitempty"`
	System bool   `json:"system,omitempty" toml:"system,omitempty"`
	Hidden bool   `json:"hidden,omitempty" toml:"hidden,omitempty"`
}

// Collection is a collection model.
type Collection struct {
	ID     string         `json:"id,omitempty" toml:"id,omitempty"`
	Name   string         `json:"name" toml:"name"`
	Type   CollectionType `json:"type,omitempty" toml:"type,omitempty"`
	Fields []Field        `json:"fields" toml:"fields"`
}

// FieldNames returns every field name of the collection in declaration
// order, hidden fields included.
func (c Collection) FieldNames() []string {
	names := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Registry is an in-memory set of collection models keyed by name.
type Registry struct {
	mu          sync.RWMutex
	collections map[string]Collection
}

// NewRegistry returns a registry holding the given collections.
func NewRegistry(collections ...Collection) *Registry {
	r := &Registry{collections: make(map[string]Collection, len(collections))}
	r.Put(collections...)
	return r
}

// Put adds or replaces collections by name.
func (r *Registry) Put(collections ...Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range collections {
		c.Fields = slices.Clone(c.Fields)
		r.collections[c.Name] = c
	}
}

// Collection returns the model with the given name.
func (r *Registry) Collection(name string) (Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[name]
	if !ok {
		return Collection{}, false
	}
	c.Fields = slices.Clone(c.Fields)
	return c, true
}

// Collections returns every model sorted by name.
func (r *Registry) Collections() []Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Collection, 0, len(r.collections))
	for _, c := range r.collections {
		c.Fields = slices.Clone(c.Fields)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted collection names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldsForCollection returns the field names of the named collection, or
// nil when it is unknown.
func (r *Registry) FieldsForCollection(name string) []string {
	c, ok := r.Collection(name)
	if !ok {
		return nil
	}
	return c.FieldNames()
}
