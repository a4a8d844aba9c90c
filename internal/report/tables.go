package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"dropsync/internal/align"
	"dropsync/internal/fileutil"
	"dropsync/internal/segment"
	"dropsync/internal/series"
)

// TimeLayout is used for every timestamp written to disk.
const TimeLayout = "2006-01-02 15:04:05.999999"

// Table is a header plus string rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// IntervalHeader lists the interval summary columns.
var IntervalHeader = []string{
	"id", "start", "end", "duration_s", "start_index", "end_index",
	"max_metric", "mean_metric", "samples",
}

// Intervals renders the interval summary table.
func Intervals(intervals []segment.Interval) Table {
	t := Table{Header: append([]string(nil), IntervalHeader...), Rows: make([][]string, 0, len(intervals))}
	for _, iv := range intervals {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(iv.ID),
			FormatTime(iv.Start),
			FormatTime(iv.End),
			FormatFloat(series.Seconds(iv.Duration())),
			strconv.Itoa(iv.StartIndex),
			strconv.Itoa(iv.EndIndex),
			FormatFloat(iv.MaxMetric),
			FormatFloat(iv.MeanMetric),
			strconv.Itoa(iv.Samples),
		})
	}
	return t
}

// EventColumns describes the payload and borrowed sensor columns of an event table.
type EventColumns struct {
	Payload []string
	Metric  string
	Aux     []string
}

const logPrefix = "log_"

var eventTrailer = []string{"delta_s", "matched", "interval_id"}

// Header returns the event table header. Borrowed sensor columns whose names
// collide with payload or fixed columns gain a "log_" prefix.
func (c EventColumns) Header() []string {
	taken := make(map[string]struct{}, len(c.Payload)+8)
	for _, name := range c.Payload {
		taken[name] = struct{}{}
	}
	for _, name := range append([]string{"event_time", "matched_time"}, eventTrailer...) {
		taken[name] = struct{}{}
	}
	header := append([]string(nil), c.Payload...)
	header = append(header, "event_time", "matched_time")
	for _, name := range append([]string{c.Metric}, c.Aux...) {
		for {
			if _, clash := taken[name]; !clash {
				break
			}
			name = logPrefix + name
		}
		taken[name] = struct{}{}
		header = append(header, name)
	}
	return append(header, eventTrailer...)
}

// Events renders one row per event. Unmatched events leave the borrowed sensor
// columns empty.
func Events(cols EventColumns, events []align.Event) Table {
	t := Table{Header: cols.Header(), Rows: make([][]string, 0, len(events))}
	width := len(t.Header)
	for _, ev := range events {
		row := make([]string, 0, width)
		payload := make([]string, len(cols.Payload))
		copy(payload, ev.Payload)
		row = append(row, payload...)
		row = append(row, FormatTime(ev.Time))
		if sample, ok := ev.Borrowed(); ok {
			row = append(row, FormatTime(sample.Time), FormatFloat(sample.Metric))
			for _, name := range cols.Aux {
				if v, ok := sample.Aux[name]; ok {
					row = append(row, FormatFloat(v))
				} else {
					row = append(row, "")
				}
			}
		} else {
			for i := 0; i < 2+len(cols.Aux); i++ {
				row = append(row, "")
			}
		}
		row = append(row,
			FormatFloat(ev.DeltaSeconds()),
			strconv.FormatBool(ev.Matched),
			formatID(ev.IntervalID),
		)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// WriteCSV writes t to path atomically.
func WriteCSV(path string, t Table) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(t.Header); err != nil {
			return err
		}
		if err := cw.WriteAll(t.Rows); err != nil {
			return err
		}
		return cw.Error()
	})
}

// FormatTime renders t in UTC with TimeLayout. The zero time renders empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// FormatFloat renders v in its shortest round-trip form.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatID(id int) string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(id)
}
