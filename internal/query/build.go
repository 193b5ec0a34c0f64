package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// FieldLookup resolves the known field names of a collection. Unknown
// collections return nil.
type FieldLookup interface {
	FieldsForCollection(name string) []string
}

// FieldLookupFunc adapts a function to FieldLookup.
type FieldLookupFunc func(name string) []string

func (f FieldLookupFunc) FieldsForCollection(name string) []string { return f(name) }

// ListOptions is the flat parameter set of a list-records call. Zero fields
// are omitted on the wire.
type ListOptions struct {
	PerPage int    `json:"perPage,omitempty"`
	Expand  string `json:"expand,omitempty"`
	Filter  string `json:"filter,omitempty"`
	Sort    string `json:"sort,omitempty"`
}

// IsZero reports whether no parameter is set.
func (o ListOptions) IsZero() bool {
	return o == ListOptions{}
}

// Values renders the options as query parameters.
func (o ListOptions) Values() url.Values {
	q := url.Values{}
	if o.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(o.PerPage))
	}
	if o.Expand != "" {
		q.Set("expand", o.Expand)
	}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	return q
}

// BuildListOptions translates q into wire options. The default search scope
// is q.SearchFields when non-empty, else every field fields reports for the
// collection. The filter is exclude clauses, then filters (empty groups
// skipped), then search clauses, AND-joined and wrapped in one more pair of
// parentheses. A PerPage of 0 is treated as unset.
func BuildListOptions(q Query, fields FieldLookup) (ListOptions, error) {
	var defaultScope []string
	switch {
	case len(q.SearchFields) > 0:
		defaultScope = q.SearchFields
	case fields != nil:
		defaultScope = fields.FieldsForCollection(q.Collection)
	}

	var clauses []string
	for _, id := range q.Exclude {
		c, err := BuildExcludeFilter(id)
		if err != nil {
			return ListOptions{}, fmt.Errorf("build %s query: %w", q.Collection, err)
		}
		clauses = append(clauses, c)
	}
	for _, f := range q.Filter {
		if f.IsGroup() && len(f.Group.Expressions) == 0 {
			continue
		}
		if c := BuildFilter(f); c != "" {
			clauses = append(clauses, c)
		}
	}
	for _, s := range q.Search {
		scope := defaultScope
		if s.Scoped() {
			scope = s.Fields
		}
		c, err := BuildSearchFilter(s.Text, scope)
		if err != nil {
			return ListOptions{}, fmt.Errorf("build %s query: %w", q.Collection, err)
		}
		if c != "" {
			clauses = append(clauses, c)
		}
	}

	sorts := make([]string, len(q.Sort))
	for i, s := range q.Sort {
		sorts[i] = BuildSortOption(s)
	}

	var out ListOptions
	if q.PerPage != nil && *q.PerPage > 0 {
		out.PerPage = *q.PerPage
	}
	out.Expand = strings.Join(q.Expand, ",")
	if filter := strings.Join(clauses, " && "); filter != "" {
		out.Filter = "(" + filter + ")"
	}
	out.Sort = strings.Join(sorts, ",")
	return out, nil
}
