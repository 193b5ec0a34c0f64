package query

// Merge layers local on top of root. PerPage is last-write-wins: local when
// set, else root. Every list field is the concatenation root-then-local, in
// order, without de-duplication. The result shares no backing arrays with
// either argument.
func Merge(root, local Options) Options {
	r, l := root.Clone(), local.Clone()

	out := Options{
		Expand:       concat(r.Expand, l.Expand),
		Filter:       concat(r.Filter, l.Filter),
		Search:       concat(r.Search, l.Search),
		SearchFields: concat(r.SearchFields, l.SearchFields),
		Exclude:      concat(r.Exclude, l.Exclude),
		Sort:         concat(r.Sort, l.Sort),
	}
	switch {
	case l.PerPage != nil:
		out.PerPage = l.PerPage
	case r.PerPage != nil:
		out.PerPage = r.PerPage
	}
	return out
}

// concat returns a fresh slice holding a then b, or nil when both are empty.
func concat[T any](a, b []T) []T {
	if len(a)+len(b) == 0 {
		return nil
	}
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
