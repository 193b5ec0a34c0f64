package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/pbquery/internal/idgen"
	"github.com/alfredjeanlab/pbquery/internal/query"
)

// queryFlags holds the query-shaping flags shared by build, list, export
// and watch. The --base-* flags describe options every query inherits;
// the rest are local to this invocation and merged on top.
type queryFlags struct {
	filters      []string
	any          []string
	groups       []string
	search       []string
	searchIn     []string
	searchFields []string
	exclude      []string
	sort         []string
	expand       []string
	perPage      int

	baseFilters []string
	baseSort    []string
	baseExpand  []string
	basePerPage int
}

func addQueryFlags(cmd *cobra.Command) *queryFlags {
	f := &queryFlags{}
	fs := cmd.Flags()
	fs.StringArrayVar(&f.filters, "filter", nil, "raw filter expression (repeatable, AND-joined)")
	fs.StringArrayVar(&f.any, "any", nil, "expression OR-joined with the other --any values")
	fs.StringArrayVar(&f.groups, "group", nil, "id=expr: append expr to the named AND group (id:or=expr for OR)")
	fs.StringArrayVar(&f.search, "search", nil, "search text matched against the default search fields")
	fs.StringArrayVar(&f.searchIn, "search-in", nil, "text=field1,field2: search text in specific fields")
	fs.StringSliceVar(&f.searchFields, "search-field", nil, "override the default search fields")
	fs.StringSliceVar(&f.exclude, "exclude", nil, "record ids to exclude")
	fs.StringSliceVar(&f.sort, "sort", nil, "sort field, prefix with - for descending")
	fs.StringSliceVar(&f.expand, "expand", nil, "relations to expand")
	fs.IntVar(&f.perPage, "per-page", 0, "page size (0 = server default)")

	fs.StringArrayVar(&f.baseFilters, "base-filter", nil, "filter expression inherited by the query")
	fs.StringSliceVar(&f.baseSort, "base-sort", nil, "sort inherited by the query")
	fs.StringSliceVar(&f.baseExpand, "base-expand", nil, "relations always expanded")
	fs.IntVar(&f.basePerPage, "base-per-page", 0, "page size used when --per-page is not given")
	return f
}

// editor turns the parsed flags into a query editor. Flag presence, not
// value, decides whether a page size is set, so --per-page 0 explicitly
// overrides --base-per-page.
func (f *queryFlags) editor(cmd *cobra.Command) (*query.Editor, error) {
	var root query.Options
	for _, expr := range f.baseFilters {
		root.Filter = append(root.Filter, query.Expr(expr))
	}
	baseSorts, err := parseSorts(f.baseSort)
	if err != nil {
		return nil, fmt.Errorf("--base-sort: %w", err)
	}
	root.Sort = baseSorts
	root.Expand = f.baseExpand
	if cmd.Flags().Changed("base-per-page") {
		root.PerPage = query.PerPage(f.basePerPage)
	}

	ed := query.NewEditor(query.Options{Expand: f.expand, SearchFields: f.searchFields}, root)

	for _, expr := range f.filters {
		ed.AddFilter(expr)
	}
	if len(f.any) > 0 {
		id, err := idgen.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate group id: %w", err)
		}
		for _, expr := range f.any {
			ed.AddGroupExpression(id, expr, query.ModeOr)
		}
	}
	for _, g := range f.groups {
		id, mode, expr, err := parseGroup(g)
		if err != nil {
			return nil, err
		}
		ed.AddGroupExpression(id, expr, mode)
	}

	for _, text := range f.search {
		ed.AddSearch(query.SearchText(text))
	}
	for _, s := range f.searchIn {
		text, fields, err := parseSearchIn(s)
		if err != nil {
			return nil, err
		}
		ed.AddSearch(query.SearchIn(text, fields...))
	}

	if len(f.exclude) > 0 {
		ed.AddExclude(f.exclude...)
	}

	sorts, err := parseSorts(f.sort)
	if err != nil {
		return nil, fmt.Errorf("--sort: %w", err)
	}
	for _, s := range sorts {
		ed.AddSort(s.Field, s.Order)
	}

	if cmd.Flags().Changed("per-page") {
		ed.WithPagination(f.perPage)
	}
	return ed, nil
}

// parseSorts parses "field", "+field" and "-field".
func parseSorts(values []string) ([]query.SortOption, error) {
	var out []query.SortOption
	for _, v := range values {
		v = strings.TrimSpace(v)
		order := query.SortAsc
		switch {
		case strings.HasPrefix(v, "-"):
			order = query.SortDesc
			v = v[1:]
		case strings.HasPrefix(v, "+"):
			v = v[1:]
		}
		if v == "" {
			return nil, fmt.Errorf("empty sort field")
		}
		out = append(out, query.SortOption{Field: v, Order: order})
	}
	return out, nil
}

// parseGroup parses "id=expr" and "id:or=expr".
func parseGroup(s string) (string, query.FilterMode, string, error) {
	key, expr, ok := strings.Cut(s, "=")
	expr = strings.TrimSpace(expr)
	if !ok || expr == "" {
		return "", "", "", fmt.Errorf("--group %q: want id=expr", s)
	}
	id, modeName, hasMode := strings.Cut(key, ":")
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", "", fmt.Errorf("--group %q: empty group id", s)
	}
	mode := query.ModeAnd
	if hasMode {
		switch strings.ToLower(strings.TrimSpace(modeName)) {
		case "and":
		case "or":
			mode = query.ModeOr
		default:
			return "", "", "", fmt.Errorf("--group %q: mode must be and or or", s)
		}
	}
	return id, mode, expr, nil
}

// parseSearchIn parses "text=field1,field2".
func parseSearchIn(s string) (string, []string, error) {
	text, list, ok := strings.Cut(s, "=")
	if !ok || text == "" {
		return "", nil, fmt.Errorf("--search-in %q: want text=field1,field2", s)
	}
	var fields []string
	for _, field := range strings.Split(list, ",") {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("--search-in %q: no fields", s)
	}
	return text, fields, nil
}

// resolvedQuery is a merged query together with the field lookup used to
// build it and the resulting wire options.
type resolvedQuery struct {
	query.Query
	Fields query.FieldLookup
	Params query.ListOptions
}

// resolveQuery builds the merged query for collection and translates it
// into wire options. Remote schema lookup is only attempted when remote is
// set and an unscoped search term needs default fields.
func resolveQuery(cmd *cobra.Command, f *queryFlags, collection string, remote bool) (resolvedQuery, error) {
	ed, err := f.editor(cmd)
	if err != nil {
		return resolvedQuery{}, err
	}
	rq := resolvedQuery{Query: ed.Query(collection)}

	unscoped := needsDefaultScope(rq.Query)
	rq.Fields, err = loadFields(cmd.Context(), remote && unscoped)
	if err != nil {
		return resolvedQuery{}, err
	}
	if unscoped && (rq.Fields == nil || len(rq.Fields.FieldsForCollection(collection)) == 0) {
		logger.Warn("no fields known for collection; unscoped search terms are skipped",
			"collection", collection, "hint", "pass --schema, --search-field or --search-in")
	}
	rq.Params, err = query.BuildListOptions(rq.Query, rq.Fields)
	if err != nil {
		return resolvedQuery{}, err
	}
	logger.Debug("query built", "collection", collection, "filter", rq.Params.Filter, "sort", rq.Params.Sort)
	return rq, nil
}

func needsDefaultScope(q query.Query) bool {
	if len(q.SearchFields) > 0 {
		return false
	}
	for _, s := range q.Search {
		if !s.Scoped() {
			return true
		}
	}
	return false
}
