package recordset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bluehands/internal/fetcher"
	"github.com/sells-group/bluehands/internal/model"
)

// WriteCSV writes the header and one row per listing to w, preceded by a
// UTF-8 byte-order mark.
func WriteCSV(w io.Writer, recs []model.RawListing) error {
	bw := fetcher.NewBOMWriter(w)
	cw := csv.NewWriter(bw)

	if err := cw.Write(Header()); err != nil {
		return eris.Wrap(err, "recordset: write header")
	}
	for _, rec := range recs {
		if err := cw.Write(Cells(rec)); err != nil {
			return eris.Wrapf(err, "recordset: write row %q", rec.Name)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "recordset: flush csv")
	}
	if err := bw.Close(); err != nil {
		return eris.Wrap(err, "recordset: flush bom writer")
	}
	return nil
}

// WriteCSVFile writes the record set to path, creating parent directories.
// The file is written to a temporary name and renamed into place so a failed
// run never leaves a truncated record set behind.
func WriteCSVFile(path string, recs []model.RawListing) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "recordset: create dir for %s", path)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "recordset: create temp file for %s", path)
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck

	if err := WriteCSV(f, recs); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "recordset: close %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "recordset: rename to %s", path)
	}
	return nil
}

// WriteXLSXFile writes the record set as a single-sheet workbook.
func WriteXLSXFile(path string, recs []model.RawListing) error {
	rows := make([][]string, len(recs))
	for i, rec := range recs {
		rows[i] = Cells(rec)
	}
	if err := fetcher.WriteXLSX(path, SheetName, Header(), rows); err != nil {
		return eris.Wrap(err, "recordset: write xlsx")
	}
	return nil
}
