package recordset

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bluehands/internal/fetcher"
)

// Read loads a record set from path. Files ending in .xlsx are read as
// workbooks (first sheet); anything else is read as CSV with an optional
// byte-order mark. Header names and cells are trimmed.
func Read(ctx context.Context, path string) (*Set, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "recordset: input file %s", path)
	}

	var (
		header []string
		rows   [][]string
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		header, rows, err = readXLSX(path)
	default:
		header, rows, err = readCSV(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	return build(header, rows), nil
}

func readCSV(ctx context.Context, path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "recordset: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		StripBOM:  true,
		TrimSpace: true,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, nil, eris.Wrapf(err, "recordset: read %s", path)
	}
	return <-headerCh, rows, nil
}

func readXLSX(path string) ([]string, [][]string, error) {
	all, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, nil, eris.Wrapf(err, "recordset: read %s", path)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	for _, r := range all {
		for i := range r {
			r[i] = strings.TrimSpace(r[i])
		}
	}
	return all[0], all[1:], nil
}

func build(header []string, rows [][]string) *Set {
	s := &Set{Header: header, Rows: make([]Row, 0, len(rows))}
	for _, cells := range rows {
		if isBlank(cells) {
			continue
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(cells) {
				row[col] = cells[i]
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
