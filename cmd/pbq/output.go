package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/pbquery/internal/client"
	"github.com/alfredjeanlab/pbquery/internal/query"
	"github.com/alfredjeanlab/pbquery/internal/schema"
	"github.com/alfredjeanlab/pbquery/internal/ui"
)

// maxColumnWidth caps a table cell so wide JSON values do not wrap rows.
const maxColumnWidth = 40

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printListOptions prints the wire parameters of a list call one per line,
// followed by the request path they encode to.
func printListOptions(w io.Writer, collection string, opts query.ListOptions) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", ui.RenderKey("collection:"), ui.RenderAccent(collection))
	row := func(key, value string) {
		if value == "" {
			value = ui.RenderMuted("(none)")
		}
		fmt.Fprintf(tw, "%s\t%s\n", ui.RenderKey(key+":"), value)
	}
	perPage := ""
	if opts.PerPage > 0 {
		perPage = fmt.Sprint(opts.PerPage)
	}
	row("perPage", perPage)
	row("expand", opts.Expand)
	row("filter", opts.Filter)
	row("sort", opts.Sort)
	tw.Flush()

	path := "/api/collections/" + collection + "/records"
	if q := opts.Values().Encode(); q != "" {
		path += "?" + q
	}
	fmt.Fprintf(w, "\n%s %s\n", ui.RenderMuted("GET"), path)
}

// recordColumns picks the table columns: the requested ones, or id followed
// by the remaining top-level keys in sorted order.
func recordColumns(records []client.Record, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	seen := map[string]bool{"id": true, "collectionId": true, "collectionName": true, "expand": true}
	var rest []string
	for _, r := range records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}
	sort.Strings(rest)
	return append([]string{"id"}, rest...)
}

func printRecordTable(w io.Writer, list *client.RecordList, columns []string) {
	columns = recordColumns(list.Items, columns)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = strings.ToUpper(c)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, r := range list.Items {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = ui.Truncate(r.Text(c), maxColumnWidth)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
	fmt.Fprintln(w, ui.RenderMuted(fmt.Sprintf("\n%d records (page %d of %d, %d total)",
		len(list.Items), list.Page, list.TotalPages, list.TotalItems)))
}

func printCollectionTable(w io.Writer, collections []schema.Collection) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tSEARCH FIELDS")
	for _, c := range collections {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ui.RenderAccent(c.Name), c.Type, strings.Join(c.FieldNames(), ", "))
	}
	tw.Flush()
}

func printCollection(w io.Writer, c schema.Collection) {
	fmt.Fprintf(w, "%s %s\n\n", ui.RenderAccent(c.Name), ui.RenderMuted("("+string(c.Type)+")"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tTYPE\tFLAGS")
	for _, f := range c.Fields {
		var flags []string
		if f.System {
			flags = append(flags, "system")
		}
		if f.Hidden {
			flags = append(flags, "hidden")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, f.Type, strings.Join(flags, ","))
	}
	tw.Flush()
}
