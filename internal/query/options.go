// Package query builds list-query parameters for a PocketBase-style records
// API from layered, typed options.
package query

// SortOrder is the direction of a sort key.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// IsValid reports whether the order is ASC or DESC.
func (o SortOrder) IsValid() bool {
	return o == SortAsc || o == SortDesc
}

// Flip returns the opposite direction.
func (o SortOrder) Flip() SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// FilterMode is the operator joining the expressions of a CompoundFilter.
type FilterMode string

const (
	ModeAnd FilterMode = "&&"
	ModeOr  FilterMode = "||"
)

// orDefault maps the zero mode to ModeAnd.
func (m FilterMode) orDefault() FilterMode {
	if m == "" {
		return ModeAnd
	}
	return m
}

// CompoundFilter is a named group of expressions. The ID lets callers find
// the group later and append or remove single expressions without touching
// sibling filters.
type CompoundFilter struct {
	ID          string     `json:"id"`
	Expressions []string   `json:"expressions"`
	Mode        FilterMode `json:"mode"`
}

func (g CompoundFilter) clone() CompoundFilter {
	g.Expressions = cloneStrings(g.Expressions)
	return g
}

// FilterKind discriminates the Filter variants.
type FilterKind int

const (
	FilterExpr FilterKind = iota
	FilterGroup
)

// Filter is either a raw expression or a CompoundFilter.
type Filter struct {
	Kind  FilterKind
	Expr  string
	Group *CompoundFilter
}

// Expr returns a raw expression filter.
func Expr(expr string) Filter {
	return Filter{Kind: FilterExpr, Expr: expr}
}

// Group returns a compound filter. A zero mode is treated as ModeAnd.
func Group(id string, mode FilterMode, exprs ...string) Filter {
	return Filter{Kind: FilterGroup, Group: &CompoundFilter{
		ID:          id,
		Expressions: cloneStrings(exprs),
		Mode:        mode.orDefault(),
	}}
}

// IsGroup reports whether f holds a CompoundFilter.
func (f Filter) IsGroup() bool {
	return f.Kind == FilterGroup && f.Group != nil
}

func (f Filter) clone() Filter {
	if f.Group != nil {
		g := f.Group.clone()
		f.Group = &g
	}
	return f
}

// SearchFilter is a partial-match search term. Terms built with SearchText
// scan the default field scope of the query; terms built with SearchIn scan
// only the given fields.
type SearchFilter struct {
	Text   string
	Fields []string
	scoped bool
}

// SearchText returns a term scanning the default search fields.
func SearchText(text string) SearchFilter {
	return SearchFilter{Text: text}
}

// SearchIn returns a term scanning exactly the given fields.
func SearchIn(text string, fields ...string) SearchFilter {
	return SearchFilter{Text: text, Fields: cloneStrings(fields), scoped: true}
}

// Scoped reports whether the term carries its own field set.
func (s SearchFilter) Scoped() bool {
	return s.scoped
}

func (s SearchFilter) clone() SearchFilter {
	s.Fields = cloneStrings(s.Fields)
	return s
}

// SortOption is a (field, direction) pair.
type SortOption struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// Asc returns an ascending sort key.
func Asc(field string) SortOption { return SortOption{Field: field, Order: SortAsc} }

// Desc returns a descending sort key.
func Desc(field string) SortOption { return SortOption{Field: field, Order: SortDesc} }

// Options is the declarative description of a list query. Every field is
// optional: nil or empty means "no constraint".
type Options struct {
	Expand       []string
	PerPage      *int
	Filter       []Filter
	Search       []SearchFilter
	SearchFields []string
	Exclude      []string
	Sort         []SortOption
}

// PerPage returns a pointer to n, for use in Options literals.
func PerPage(n int) *int {
	return &n
}

// Clone returns a deep copy of o.
func (o Options) Clone() Options {
	out := Options{
		Expand:       cloneStrings(o.Expand),
		SearchFields: cloneStrings(o.SearchFields),
		Exclude:      cloneStrings(o.Exclude),
	}
	if o.PerPage != nil {
		out.PerPage = PerPage(*o.PerPage)
	}
	if o.Filter != nil {
		out.Filter = make([]Filter, len(o.Filter))
		for i, f := range o.Filter {
			out.Filter[i] = f.clone()
		}
	}
	if o.Search != nil {
		out.Search = make([]SearchFilter, len(o.Search))
		for i, s := range o.Search {
			out.Search[i] = s.clone()
		}
	}
	if o.Sort != nil {
		out.Sort = append([]SortOption(nil), o.Sort...)
	}
	return out
}

// Query is an Options value bound to a target collection.
type Query struct {
	Collection string
	Options
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
