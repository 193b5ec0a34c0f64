package query

import "slices"

// Editor holds a mutable working Options value on top of an immutable root.
// Mutators change only the working value and return the Editor for chaining.
// Read accessors that describe the effective query go through Merge, so
// state inherited from the root is visible.
//
// An Editor is owned by a single caller; it is not safe for concurrent use.
type Editor struct {
	options Options
	root    Options
}

// NewEditor returns an editor over copies of local and root.
func NewEditor(local, root Options) *Editor {
	return &Editor{options: local.Clone(), root: root.Clone()}
}

// Local returns a copy of the working options.
func (e *Editor) Local() Options {
	return e.options.Clone()
}

// Root returns a copy of the inherited options.
func (e *Editor) Root() Options {
	return e.root.Clone()
}

// Merged returns root and working options merged.
func (e *Editor) Merged() Options {
	return Merge(e.root, e.options)
}

// Query binds the merged options to a collection.
func (e *Editor) Query(collection string) Query {
	return Query{Collection: collection, Options: e.Merged()}
}

// --- Pagination ---

func (e *Editor) WithPagination(perPage int) *Editor {
	e.options.PerPage = PerPage(perPage)
	return e
}

// PageSize returns the effective page size and whether one is set.
func (e *Editor) PageSize() (int, bool) {
	m := e.Merged()
	if m.PerPage == nil {
		return 0, false
	}
	return *m.PerPage, true
}

// HasPagination reports whether the effective page size is positive.
func (e *Editor) HasPagination() bool {
	n, _ := e.PageSize()
	return n > 0
}

// --- Filters ---

// SetFilters replaces the working filter set.
func (e *Editor) SetFilters(filters ...Filter) *Editor {
	e.options.Filter = make([]Filter, len(filters))
	for i, f := range filters {
		e.options.Filter[i] = f.clone()
	}
	return e
}

// FilterByID returns a copy of the working group with the given id.
func (e *Editor) FilterByID(id string) (CompoundFilter, bool) {
	if i := e.groupIndex(id); i >= 0 {
		return e.options.Filter[i].Group.clone(), true
	}
	return CompoundFilter{}, false
}

// AddFilter appends a raw expression.
func (e *Editor) AddFilter(expr string) *Editor {
	e.options.Filter = append(e.options.Filter, Expr(expr))
	return e
}

// AddGroupExpression appends expr to the group with the given id. When no
// such group exists one is created with the given mode (AND when zero).
// The mode of an existing group is left unchanged.
func (e *Editor) AddGroupExpression(id, expr string, mode FilterMode) *Editor {
	if i := e.groupIndex(id); i >= 0 {
		g := e.options.Filter[i].Group
		g.Expressions = append(g.Expressions, expr)
		return e
	}
	e.options.Filter = append(e.options.Filter, Group(id, mode, expr))
	return e
}

// RemoveFilter removes the most recently added raw expression equal to
// expr. Groups are never touched.
func (e *Editor) RemoveFilter(expr string) *Editor {
	for i := len(e.options.Filter) - 1; i >= 0; i-- {
		f := e.options.Filter[i]
		if !f.IsGroup() && f.Expr == expr {
			e.options.Filter = slices.Delete(e.options.Filter, i, i+1)
			break
		}
	}
	return e
}

// RemoveGroupExpression removes the last occurrence of expr from the group
// with the given id. A group left with no expressions is pruned.
func (e *Editor) RemoveGroupExpression(id, expr string) *Editor {
	i := e.groupIndex(id)
	if i < 0 {
		return e
	}
	g := e.options.Filter[i].Group
	if j := lastIndex(g.Expressions, expr); j >= 0 {
		g.Expressions = slices.Delete(g.Expressions, j, j+1)
	}
	if len(g.Expressions) == 0 {
		e.options.Filter = slices.Delete(e.options.Filter, i, i+1)
	}
	return e
}

// RemoveGroup removes every working group with the given id.
func (e *Editor) RemoveGroup(id string) *Editor {
	e.options.Filter = slices.DeleteFunc(e.options.Filter, func(f Filter) bool {
		return f.IsGroup() && f.Group.ID == id
	})
	return e
}

// HasFilter reports whether expr is a raw working expression.
func (e *Editor) HasFilter(expr string) bool {
	return slices.ContainsFunc(e.options.Filter, func(f Filter) bool {
		return !f.IsGroup() && f.Expr == expr
	})
}

// HasGroupExpression reports whether the working group id contains expr.
func (e *Editor) HasGroupExpression(id, expr string) bool {
	return slices.ContainsFunc(e.options.Filter, func(f Filter) bool {
		return f.IsGroup() && f.Group.ID == id && slices.Contains(f.Group.Expressions, expr)
	})
}

func (e *Editor) groupIndex(id string) int {
	return slices.IndexFunc(e.options.Filter, func(f Filter) bool {
		return f.IsGroup() && f.Group.ID == id
	})
}

// --- Search ---

func (e *Editor) AddSearch(s SearchFilter) *Editor {
	e.options.Search = append(e.options.Search, s.clone())
	return e
}

// SetSearch replaces the working search terms.
func (e *Editor) SetSearch(terms ...SearchFilter) *Editor {
	e.options.Search = make([]SearchFilter, len(terms))
	for i, s := range terms {
		e.options.Search[i] = s.clone()
	}
	return e
}

// ClearSearch drops all working search terms. Root terms still apply.
func (e *Editor) ClearSearch() *Editor {
	e.options.Search = []SearchFilter{}
	return e
}

// HasSearch reports whether any search term applies after merging.
func (e *Editor) HasSearch() bool {
	return len(e.Merged().Search) > 0
}

// --- Exclude ---

func (e *Editor) AddExclude(ids ...string) *Editor {
	e.options.Exclude = append(e.options.Exclude, ids...)
	return e
}

// --- Sort ---

func (e *Editor) AddSort(field string, order SortOrder) *Editor {
	e.options.Sort = append(e.options.Sort, SortOption{Field: field, Order: order})
	return e
}

// SetSort replaces the working sort keys with a single key.
func (e *Editor) SetSort(field string, order SortOrder) *Editor {
	e.options.Sort = []SortOption{{Field: field, Order: order}}
	return e
}

// FlipSort reverses the direction of the first working key equal to s.
// It is a no-op when no such key exists.
func (e *Editor) FlipSort(s SortOption) *Editor {
	i := slices.Index(e.options.Sort, s)
	if i < 0 {
		return e
	}
	sorts := slices.Clone(e.options.Sort)
	sorts[i].Order = sorts[i].Order.Flip()
	e.options.Sort = sorts
	return e
}

// HasSort reports whether field is a sort key after merging.
func (e *Editor) HasSort(field string) bool {
	_, ok := e.SortFor(field)
	return ok
}

// SortFor returns the first merged sort key on field.
func (e *Editor) SortFor(field string) (SortOption, bool) {
	for _, s := range e.Merged().Sort {
		if s.Field == field {
			return s, true
		}
	}
	return SortOption{}, false
}

func lastIndex(s []string, v string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == v {
			return i
		}
	}
	return -1
}
