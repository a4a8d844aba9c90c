package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"

	"dropsync/internal/align"
	"dropsync/internal/faults"
	"dropsync/internal/timefmt"
)

// EventOptions describes the event index layout.
type EventOptions struct {
	TimestampColumn    string
	TimestampRawColumn string
	SubsecColumn       string
	TimestampFormat    string
}

// EventIndex is a loaded event index. Every data row becomes a RawEvent; rows
// without a usable timestamp keep a zero Time and are listed in Errors.
type EventIndex struct {
	Columns []string
	Events  []align.RawEvent
	Errors  []ParseError
}

// Dropped returns the number of rows without a usable timestamp.
func (x *EventIndex) Dropped() int {
	return len(x.Errors)
}

// ReadEventIndex loads the event index at path.
func ReadEventIndex(path string, opts EventOptions) (*EventIndex, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: event index %s", faults.ErrMissingInput, path)
		}
		return nil, fmt.Errorf("%w: open event index: %w", faults.ErrMissingInput, err)
	}
	defer file.Close()
	return ParseEventIndex(file, opts)
}

// ParseEventIndex reads an event index from r. Each row's time comes from the
// parsed timestamp column when usable, else from the raw column with the
// optional sub-second field appended. Both try the configured format before
// inferring. An index with neither timestamp column returns ErrSchema.
func ParseEventIndex(r io.Reader, opts EventOptions) (*EventIndex, error) {
	parser, err := timefmt.Compile(opts.TimestampFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", faults.ErrConfiguration, err)
	}
	cr, err := newReader(r, 0)
	if err != nil {
		return nil, err
	}
	hdr, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	tsIdx := hdr.lookup(opts.TimestampColumn)
	rawIdx := hdr.lookup(opts.TimestampRawColumn)
	subIdx := hdr.lookup(opts.SubsecColumn)
	if tsIdx < 0 && rawIdx < 0 {
		return nil, fmt.Errorf("%w: event index has neither %q nor %q column (header %v)",
			faults.ErrSchema, opts.TimestampColumn, opts.TimestampRawColumn, hdr.names)
	}

	index := &EventIndex{Columns: hdr.names}
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			index.Errors = append(index.Errors, ParseError{Row: row, Reason: err.Error()})
			index.Events = append(index.Events, align.RawEvent{Row: row})
			continue
		}
		if isBlank(record) {
			continue
		}
		payload := make([]string, len(hdr.names))
		copy(payload, record)

		ev := align.RawEvent{Row: row, Payload: payload}
		if ts, err := parser.ParseOrInfer(field(record, tsIdx)); err == nil {
			ev.Time = ts
		} else if raw := timefmt.WithSubsecond(field(record, rawIdx), field(record, subIdx)); raw != "" {
			if ts, err := parser.ParseOrInfer(raw); err == nil {
				ev.Time = ts
			}
		}
		if !ev.Valid() {
			index.Errors = append(index.Errors, ParseError{Row: row, Reason: "invalid timestamp"})
		}
		index.Events = append(index.Events, ev)
	}
	return index, nil
}
