package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
)

// SnapshotTable lays out a name to value map as a two-column table sorted by
// name.
func SnapshotTable(title, column string, values map[string]float64) table.Writer {
	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Name", column})

	for _, n := range names {
		t.AppendRow(table.Row{n, fmt.Sprintf("%.4g", values[n])})
	}

	return t
}

// WriteSnapshot writes a snapshot table to w.
func WriteSnapshot(w io.Writer, title, column string, values map[string]float64) error {
	_, err := fmt.Fprintln(w, SnapshotTable(title, column, values).Render())
	return errors.Wrap(err, "write snapshot")
}
