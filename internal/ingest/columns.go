package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"

	"dropsync/internal/faults"
)

// ParseError describes one discarded row.
type ParseError struct {
	Row    int
	Reason string
}

func (e ParseError) String() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// header maps folded column names to their positions.
type header struct {
	names []string
	index map[string]int
	fold  cases.Caser
}

func newHeader(names []string) *header {
	h := &header{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
		fold:  cases.Fold(),
	}
	for i, name := range names {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		h.names[i] = name
		key := h.fold.String(name)
		if _, dup := h.index[key]; !dup {
			h.index[key] = i
		}
	}
	return h
}

// lookup returns the position of name, or -1 when absent or name is empty.
func (h *header) lookup(name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}
	if idx, ok := h.index[h.fold.String(name)]; ok {
		return idx
	}
	return -1
}

// require returns the position of name or an ErrSchema error.
func (h *header) require(name, role string) (int, error) {
	idx := h.lookup(name)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s column %q not found in header %v", faults.ErrSchema, role, name, h.names)
	}
	return idx, nil
}

// newReader skips skip raw lines and returns a CSV reader positioned at the
// header row.
func newReader(r io.Reader, skip int) (*csv.Reader, error) {
	br := bufio.NewReader(r)
	for i := 0; i < skip; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("%w: file ended within %d skipped header lines", faults.ErrSchema, skip)
			}
			return nil, err
		}
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false
	return cr, nil
}

// readHeader reads the column header row.
func readHeader(cr *csv.Reader) (*header, error) {
	names, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header row", faults.ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", faults.ErrSchema, err)
	}
	return newHeader(names), nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
