package report

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
)

// DefaultReportName is the report file name Collate looks for.
const DefaultReportName = "report.txt"

// FindReports walks the folders recursively and returns every file called
// name, sorted.
func FindReports(folders []string, name string) ([]string, error) {
	var paths []string

	for _, folder := range folders {
		err := filepath.WalkDir(folder,
			func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}

				if !d.IsDir() && d.Name() == name {
					paths = append(paths, path)
				}

				return nil
			})
		if err != nil {
			return nil, errors.Wrapf(err, "search %s", folder)
		}
	}

	sort.Strings(paths)

	return paths, nil
}

// Collation is the parsed reports of many runs, ordered along one
// architecture key.
type Collation struct {
	XAxis   string
	Reports []Parsed
}

// Collate parses every report called reportName under the folders and orders
// them by the architecture key xAxis.
func Collate(folders []string, reportName, xAxis string) (*Collation, error) {
	if !isArchKey(xAxis) {
		return nil, errors.Errorf("unknown x axis %q, use one of %v",
			xAxis, ArchKeys())
	}

	paths, err := FindReports(folders, reportName)
	if err != nil {
		return nil, err
	}

	c := &Collation{XAxis: xAxis}
	for _, path := range paths {
		p, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		c.Reports = append(c.Reports, p)
	}

	sort.SliceStable(c.Reports, func(i, j int) bool {
		return c.less(c.Reports[i], c.Reports[j])
	})

	return c, nil
}

func (c *Collation) less(a, b Parsed) bool {
	fa, okA := a.ArchFloat(c.XAxis)
	fb, okB := b.ArchFloat(c.XAxis)
	if okA && okB {
		return fa < fb
	}

	return a.Arch[c.XAxis] < b.Arch[c.XAxis]
}

func isArchKey(key string) bool {
	for _, k := range archKeys {
		if k.key == key {
			return true
		}
	}

	return false
}

// Table lays the collation out with one row per report.
func (c *Collation) Table() table.Writer {
	t := table.NewWriter()

	header := table.Row{c.XAxis}
	for _, b := range Blocks {
		header = append(header, b+"_total_area", b+"_frac")
	}
	header = append(header, "path")
	t.AppendHeader(header)

	for _, p := range c.Reports {
		row := table.Row{p.Arch[c.XAxis]}
		for _, b := range Blocks {
			row = append(row, p.Areas[b], p.Fractions[b])
		}
		row = append(row, p.Path)
		t.AppendRow(row)
	}

	return t
}

// CSV renders the collation as CSV.
func (c *Collation) CSV() string {
	return c.Table().RenderCSV()
}
