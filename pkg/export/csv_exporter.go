package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVExporter writes datasets as RFC 4180 CSV. Cells that a spreadsheet would
// evaluate as a formula are prefixed with a single quote.
type CSVExporter struct {
	guardFormulas bool
}

// NewCSVExporter builds a CSV exporter with formula guarding enabled.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{guardFormulas: true}
}

// Render returns the dataset encoded as CSV.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the header line followed by one line per row.
func (e *CSVExporter) Write(w io.Writer, data Dataset) error {
	if err := data.check("csv"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(data.Headers); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for i := range data.Rows {
		record := data.Record(i)
		if e.guardFormulas {
			for j, cell := range record {
				record[j] = guardFormula(cell)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func guardFormula(cell string) string {
	if cell == "" || !strings.ContainsRune("=+-@", rune(cell[0])) {
		return cell
	}
	return "'" + cell
}
