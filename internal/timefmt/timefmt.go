// Package timefmt parses timestamps from configured formats.
//
// A format containing '%' is a strftime specification; any other non-empty
// format is a Go reference layout. An empty format means the layout is
// inferred per value from a fixed list of common shapes. Values without a
// zone are read as UTC.
package timefmt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// ErrUnparseable reports a value no layout accepted.
var ErrUnparseable = errors.New("unparseable timestamp")

// inferLayouts are tried in order when no format is configured.
var inferLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006:01:02 15:04:05",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"02.01.2006 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parser converts strings into times using one configured format.
type Parser struct {
	format string
	layout string
	infer  bool
}

// Compile validates format and returns a Parser for it.
func Compile(format string) (*Parser, error) {
	format = strings.TrimSpace(format)
	switch {
	case format == "":
		return &Parser{infer: true}, nil
	case strings.Contains(format, "%"):
		layout, err := strftime.Layout(format)
		if err != nil {
			return nil, fmt.Errorf("timestamp format %q: %w", format, err)
		}
		return &Parser{format: format, layout: layout}, nil
	default:
		return &Parser{format: format, layout: format}, nil
	}
}

// Parse parses value with the configured format, or by inference when none is
// configured.
func (p *Parser) Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseable)
	}
	if p.infer {
		return Infer(value)
	}
	var (
		ts  time.Time
		err error
	)
	if strings.Contains(p.format, "%") {
		ts, err = strftime.Parse(p.format, value)
	} else {
		ts, err = time.Parse(p.layout, value)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match %q", ErrUnparseable, value, p.format)
	}
	return ts.UTC(), nil
}

// ParseOrInfer tries the configured format and falls back to inference.
func (p *Parser) ParseOrInfer(value string) (time.Time, error) {
	ts, err := p.Parse(value)
	if err == nil || p.infer {
		return ts, err
	}
	return Infer(value)
}

// Infer parses value against the built-in layouts, then as Unix seconds.
func Infer(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseable)
	}
	for _, layout := range inferLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(secs) && !math.IsInf(secs, 0) {
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, value)
}

// WithSubsecond appends a sub-second digit string to a raw timestamp as a
// decimal fraction. Non-digit or empty subsec values leave raw unchanged.
func WithSubsecond(raw, subsec string) string {
	raw = strings.TrimSpace(raw)
	subsec = strings.TrimSpace(subsec)
	if raw == "" || subsec == "" {
		return raw
	}
	// Spreadsheet exports often turn "040" into "40.0".
	if whole, _, ok := strings.Cut(subsec, "."); ok {
		subsec = whole
	}
	for _, r := range subsec {
		if r < '0' || r > '9' {
			return raw
		}
	}
	return raw + "." + subsec
}
