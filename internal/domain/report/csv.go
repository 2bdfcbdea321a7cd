package report

import (
	"encoding/csv"
	"io"

	"github.com/go-faster/errors"
)

// WriteCSV serializes t as comma-separated text, header first. Fields
// containing the delimiter, quotes or line breaks are double-quoted.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return errors.Wrap(err, "write header")
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return errors.Wrap(err, "write rows")
	}
	return nil
}
