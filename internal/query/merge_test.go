package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// optionsCmp compares Options structurally, treating nil and empty slices
// as equal.
var optionsCmp = []cmp.Option{
	cmp.AllowUnexported(SearchFilter{}),
	cmpopts.EquateEmpty(),
}

func TestMerge_ConcatenatesRootThenLocal(t *testing.T) {
	root := Options{
		Expand:       []string{"owner"},
		Filter:       []Filter{Expr("a = 1")},
		Search:       []SearchFilter{SearchText("x")},
		SearchFields: []string{"name"},
		Exclude:      []string{"r1"},
		Sort:         []SortOption{Asc("a")},
	}
	local := Options{
		Expand:       []string{"tags"},
		Filter:       []Filter{Group("g", ModeOr, "b = 2")},
		Search:       []SearchFilter{SearchIn("y", "title")},
		SearchFields: []string{"email"},
		Exclude:      []string{"r2"},
		Sort:         []SortOption{Desc("b")},
	}

	got := Merge(root, local)
	want := Options{
		Expand:       []string{"owner", "tags"},
		Filter:       []Filter{Expr("a = 1"), Group("g", ModeOr, "b = 2")},
		Search:       []SearchFilter{SearchText("x"), SearchIn("y", "title")},
		SearchFields: []string{"name", "email"},
		Exclude:      []string{"r1", "r2"},
		Sort:         []SortOption{Asc("a"), Desc("b")},
	}
	if diff := cmp.Diff(want, got, optionsCmp...); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_PerPage(t *testing.T) {
	for _, tc := range []struct {
		name  string
		root  *int
		local *int
		want  *int
	}{
		{"Neither", nil, nil, nil},
		{"RootOnly", PerPage(10), nil, PerPage(10)},
		{"LocalOnly", nil, PerPage(5), PerPage(5)},
		{"LocalWins", PerPage(10), PerPage(5), PerPage(5)},
		{"LocalZeroWins", PerPage(10), PerPage(0), PerPage(0)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(Options{PerPage: tc.root}, Options{PerPage: tc.local})
			if diff := cmp.Diff(tc.want, got.PerPage); diff != "" {
				t.Errorf("PerPage mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMerge_NoDeduplication(t *testing.T) {
	got := Merge(Options{Sort: []SortOption{Asc("a")}}, Options{Sort: []SortOption{Asc("a")}})
	if len(got.Sort) != 2 {
		t.Errorf("len(Sort) = %d, want 2", len(got.Sort))
	}
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	root := Options{Filter: []Filter{Group("g", ModeAnd, "a = 1")}, Expand: make([]string, 1, 8)}
	root.Expand[0] = "owner"

	got := Merge(root, Options{})
	got.Filter[0].Group.Expressions[0] = "mutated"
	got.Expand[0] = "mutated"

	if root.Filter[0].Group.Expressions[0] != "a = 1" {
		t.Error("mutating merged group changed root")
	}
	if root.Expand[0] != "owner" {
		t.Error("mutating merged expand changed root")
	}
}

func TestMergedSort_RootFirst(t *testing.T) {
	e := NewEditor(Options{Sort: []SortOption{Desc("b")}}, Options{Sort: []SortOption{Asc("a")}})
	lo, err := BuildListOptions(e.Query("posts"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lo.Sort != "+a,-b" {
		t.Errorf("Sort = %q, want %q", lo.Sort, "+a,-b")
	}
}
