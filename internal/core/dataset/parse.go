// Package dataset turns an uploaded equipment export into a Summary:
// Parse reads the delimited payload, Validate checks it against the required
// columns and converts it into typed rows, and Aggregate reduces those rows.
package dataset

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"

	"equipviz.dev/backend/internal/pkg/vzerr"
)

const utf8BOM = "\ufeff"

// Table is a parsed, not yet validated, delimited payload.
type Table struct {
	Header  []string
	Records [][]string

	// lines holds the 1-based input line of each record, for error reporting.
	lines []int
}

// Line returns the input line number of record i.
func (t *Table) Line(i int) int {
	if i < 0 || i >= len(t.lines) {
		return 0
	}
	return t.lines[i]
}

// Column returns the index of the first header cell named exactly name.
func (t *Table) Column(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// Parse reads a comma-delimited payload whose first row is the header. Every
// record must have as many fields as the header. Blank lines are skipped.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, vzerr.ErrMalformedInput.Msg("Invalid CSV file: file is empty")
	} else if err != nil {
		return nil, vzerr.ErrMalformedInput.Wrap(err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	t := &Table{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, vzerr.ErrMalformedInput.Wrap(err)
		}
		line, _ := reader.FieldPos(0)
		t.Records = append(t.Records, record)
		t.lines = append(t.lines, line)
	}

	return t, nil
}
