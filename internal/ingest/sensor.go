package ingest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dropsync/internal/faults"
	"dropsync/internal/series"
	"dropsync/internal/timefmt"
)

// SensorOptions describes the sensor log layout.
type SensorOptions struct {
	TimestampColumn string
	MetricColumn    string
	// AuxColumns selects auxiliary fields; empty keeps every other column that
	// holds at least one numeric value.
	AuxColumns      []string
	TimestampFormat string
	SkipHeaderLines int
}

// SensorResult is a loaded sensor log plus the rows that were discarded.
type SensorResult struct {
	Log    *series.Log
	Errors []ParseError
}

// ReadSensorLog loads the sensor log at path.
func ReadSensorLog(path string, opts SensorOptions) (SensorResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return SensorResult{}, fmt.Errorf("%w: sensor log %s", faults.ErrMissingInput, path)
		}
		return SensorResult{}, fmt.Errorf("%w: open sensor log: %w", faults.ErrMissingInput, err)
	}
	defer file.Close()
	return ParseSensorLog(file, filepath.Base(path), opts)
}

// ParseSensorLog reads a sensor log from r. Samples are stable-sorted by time.
// A log with no usable rows returns ErrNoSamples.
func ParseSensorLog(r io.Reader, name string, opts SensorOptions) (SensorResult, error) {
	parser, err := timefmt.Compile(opts.TimestampFormat)
	if err != nil {
		return SensorResult{}, fmt.Errorf("%w: %w", faults.ErrConfiguration, err)
	}
	cr, err := newReader(r, opts.SkipHeaderLines)
	if err != nil {
		return SensorResult{}, err
	}
	hdr, err := readHeader(cr)
	if err != nil {
		return SensorResult{}, err
	}
	tsIdx, err := hdr.require(opts.TimestampColumn, "timestamp")
	if err != nil {
		return SensorResult{}, err
	}
	metricIdx, err := hdr.require(opts.MetricColumn, "metric")
	if err != nil {
		return SensorResult{}, err
	}
	auxNames, auxIdx, err := auxColumns(hdr, opts.AuxColumns, tsIdx, metricIdx)
	if err != nil {
		return SensorResult{}, err
	}

	res := SensorResult{}
	samples := make([]series.Sample, 0, 1024)
	numeric := make([]bool, len(auxIdx))
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			res.Errors = append(res.Errors, ParseError{Row: row, Reason: err.Error()})
			continue
		}
		if isBlank(record) {
			continue
		}
		ts, err := parser.Parse(field(record, tsIdx))
		if err != nil {
			res.Errors = append(res.Errors, ParseError{Row: row, Reason: "invalid timestamp"})
			continue
		}
		metric, ok := parseNumber(field(record, metricIdx))
		if !ok {
			res.Errors = append(res.Errors, ParseError{Row: row, Reason: "invalid metric"})
			continue
		}
		sample := series.Sample{Row: row, Time: ts, Metric: metric}
		for k, idx := range auxIdx {
			if v, ok := parseNumber(field(record, idx)); ok {
				if sample.Aux == nil {
					sample.Aux = make(map[string]float64, len(auxIdx))
				}
				sample.Aux[auxNames[k]] = v
				numeric[k] = true
			}
		}
		samples = append(samples, sample)
	}

	if len(samples) == 0 {
		return res, fmt.Errorf("%w: %s has no usable rows (%d discarded)", faults.ErrNoSamples, name, len(res.Errors))
	}
	series.Sort(samples)

	if len(opts.AuxColumns) == 0 {
		kept := make([]string, 0, len(auxNames))
		for k, name := range auxNames {
			if numeric[k] {
				kept = append(kept, name)
			}
		}
		auxNames = kept
	}

	res.Log = &series.Log{
		Name:         name,
		MetricColumn: hdr.names[metricIdx],
		AuxColumns:   auxNames,
		Samples:      samples,
		Dropped:      len(res.Errors),
	}
	return res, nil
}

func auxColumns(hdr *header, requested []string, tsIdx, metricIdx int) ([]string, []int, error) {
	if len(requested) > 0 {
		names := make([]string, 0, len(requested))
		idx := make([]int, 0, len(requested))
		for _, col := range requested {
			i, err := hdr.require(col, "auxiliary")
			if err != nil {
				return nil, nil, err
			}
			names = append(names, hdr.names[i])
			idx = append(idx, i)
		}
		return names, idx, nil
	}
	var names []string
	var idx []int
	for i, name := range hdr.names {
		if i == tsIdx || i == metricIdx || name == "" {
			continue
		}
		names = append(names, name)
		idx = append(idx, i)
	}
	return names, idx, nil
}

func parseNumber(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
