package patch

import (
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"
)

// WriteCSV writes the table with a header row, using comma as the field
// delimiter ('\t' for TSV). TileLoc is empty for samples that never went
// through the tumor-balancing filter.
func (t Table) WriteCSV(w io.Writer, comma rune) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = comma

	return gocsv.MarshalCSV(t, gocsv.NewSafeCSVWriter(csvWriter))
}
