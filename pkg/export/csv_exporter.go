package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// Dataset is tabular export content. Rows are positional and must match the
// header width.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// AppendConstant adds a column holding the same value on every row.
func (d *Dataset) AppendConstant(name, value string) {
	d.Headers = append(d.Headers, name)
	for i := range d.Rows {
		d.Rows[i] = append(d.Rows[i], value)
	}
}

// CSVExporter renders datasets as CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Write streams the dataset to w in row order.
func (e *CSVExporter) Write(w io.Writer, data Dataset) error {
	if len(data.Headers) == 0 {
		return fmt.Errorf("csv requires at least one header")
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(data.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for i, row := range data.Rows {
		if len(row) != len(data.Headers) {
			return fmt.Errorf("csv row %d has %d fields, want %d", i, len(row), len(data.Headers))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := e.Write(buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
