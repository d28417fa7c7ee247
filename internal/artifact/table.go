package artifact

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
)

// Table is a header plus rows of string cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable returns an empty table with the given header.
func NewTable(header ...string) Table {
	return Table{Header: slices.Clone(header)}
}

// Append adds a row.
func (t *Table) Append(row ...string) {
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of name in the header, or -1.
func (t Table) Column(name string) int {
	return slices.Index(t.Header, name)
}

// HasHeader reports whether the header equals want exactly.
func (t Table) HasHeader(want ...string) bool {
	return slices.Equal(t.Header, want)
}

// Encode renders the table as CSV.
func (t Table) Encode() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if len(t.Header) > 0 {
		if err := w.Write(t.Header); err != nil {
			return nil, fmt.Errorf("encode header: %w", err)
		}
	}
	for i, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode table: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeTable parses CSV data. The first record is the header; an empty
// input yields an empty table.
func DecodeTable(data []byte) (Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.ReuseRecord = false
	var table Table
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return table, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("decode header: %w", err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}
	table.Header = header
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("decode table: %w", err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
