package export

import (
	"encoding/csv"
	"io"
)

// ContentTypeCSV is the MIME type of single-table exports.
const ContentTypeCSV = "text/csv"

// WriteCSV writes the header row then every data row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
