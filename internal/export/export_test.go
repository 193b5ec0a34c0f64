package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alfredjeanlab/pbquery/internal/client"
	"github.com/alfredjeanlab/pbquery/internal/query"
)

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func TestExportJSONL_Empty(t *testing.T) {
	fc := newFakeClient()
	var buf bytes.Buffer
	res, err := ExportJSONL(context.Background(), fc, query.Query{Collection: "users"}, usersFields, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Records != 0 {
		t.Errorf("Records = %d, want 0", res.Records)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}
	var h Header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != FormatVersion || h.Type != "header" || h.Collection != "users" || h.Count != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if h.Timestamp.IsZero() {
		t.Error("header timestamp not set")
	}
}

func TestExportJSONL_SortsByIDWithoutSortOption(t *testing.T) {
	fc := newFakeClient()
	fc.records["users"] = []client.Record{
		{"id": "zzz", "name": "second"},
		{"id": "aaa", "name": "first <b>"},
	}

	var buf bytes.Buffer
	q := query.Query{Collection: "users", Options: query.Options{Search: []query.SearchFilter{query.SearchText("bob")}}}
	res, err := ExportJSONL(context.Background(), fc, q, usersFields, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Records != 2 {
		t.Errorf("Records = %d, want 2", res.Records)
	}

	wantFilter := "((name ~ 'bob' || email ~ 'bob'))"
	if got := fc.lastCall().Filter; got != wantFilter {
		t.Errorf("client filter = %q, want %q", got, wantFilter)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}
	var h Header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Count != 2 || h.Filter != wantFilter {
		t.Errorf("header = %+v", h)
	}

	var ids []string
	for _, line := range lines[1:] {
		var l Line
		if err := json.Unmarshal([]byte(line), &l); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		if l.Type != "record" {
			t.Errorf("line type = %q, want record", l.Type)
		}
		ids = append(ids, l.Data.ID())
	}
	if diff := cmp.Diff([]string{"aaa", "zzz"}, ids); diff != "" {
		t.Errorf("record order mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(lines[1], "first <b>") {
		t.Errorf("HTML should not be escaped: %s", lines[1])
	}
}

func TestExportJSONL_KeepsServerOrderWhenSorted(t *testing.T) {
	fc := newFakeClient()
	fc.records["posts"] = []client.Record{{"id": "b"}, {"id": "a"}}

	var buf bytes.Buffer
	q := query.Query{Collection: "posts", Options: query.Options{Sort: []query.SortOption{query.Desc("created")}}}
	if _, err := ExportJSONL(context.Background(), fc, q, nil, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fc.lastCall().Sort; got != "-created" {
		t.Errorf("client sort = %q, want -created", got)
	}
	lines := nonEmptyLines(buf.String())
	if !strings.Contains(lines[1], `"b"`) || !strings.Contains(lines[2], `"a"`) {
		t.Errorf("server order not kept:\n%s", buf.String())
	}
}

func TestExportJSONL_InvalidQuery(t *testing.T) {
	fc := newFakeClient()
	var buf bytes.Buffer
	q := query.Query{Collection: "users", Options: query.Options{Exclude: []string{"it's"}}}
	_, err := ExportJSONL(context.Background(), fc, q, usersFields, &buf)
	if !errors.Is(err, query.ErrInvalidExpression) {
		t.Fatalf("error = %v, want ErrInvalidExpression", err)
	}
	if len(fc.calls) != 0 {
		t.Error("client should not be called for an invalid query")
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written for an invalid query")
	}
}

func TestExportJSONL_ClientError(t *testing.T) {
	fc := newFakeClient()
	fc.err = errors.New("connection refused")
	var buf bytes.Buffer
	_, err := ExportJSONL(context.Background(), fc, query.Query{Collection: "users"}, nil, &buf)
	if err == nil || !strings.Contains(err.Error(), "list users") {
		t.Fatalf("error = %v, want wrapped list error", err)
	}
}
