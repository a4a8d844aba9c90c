package batch

import (
	"dropsync/internal/align"
	"dropsync/internal/assign"
	"dropsync/internal/config"
	"dropsync/internal/ingest"
	"dropsync/internal/report"
	"dropsync/internal/segment"
	"dropsync/internal/series"
)

// Settings are the immutable per-run parameters derived from a Config.
type Settings struct {
	Sensor  ingest.SensorOptions
	Events  ingest.EventOptions
	Segment segment.Params
	Align   align.Params
	Assign  assign.Params

	OutputDir  string
	DropRoot   string
	PathColumn string
	Manifests  bool
}

// SettingsFrom converts cfg into Settings.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		Sensor: ingest.SensorOptions{
			TimestampColumn: cfg.Sensor.TimestampColumn,
			MetricColumn:    cfg.Sensor.MetricColumn,
			AuxColumns:      append([]string(nil), cfg.Sensor.AuxColumns...),
			TimestampFormat: cfg.Sensor.TimestampFormat,
			SkipHeaderLines: cfg.Sensor.SkipHeaderLines,
		},
		Events: ingest.EventOptions{
			TimestampColumn:    cfg.Events.TimestampColumn,
			TimestampRawColumn: cfg.Events.TimestampRawColumn,
			SubsecColumn:       cfg.Events.SubsecColumn,
			TimestampFormat:    cfg.Events.TimestampFormat,
		},
		Segment: segment.Params{
			SmoothingWindow: cfg.Segmentation.SmoothingWindow,
			Threshold:       cfg.Segmentation.Threshold,
			MinDuration:     series.Duration(cfg.Segmentation.MinDurationS),
		},
		Align: align.Params{
			Tolerance: series.Duration(cfg.Alignment.ToleranceS),
			Buffer:    series.Duration(cfg.Alignment.BufferS),
		},
		Assign:     assign.Params{Inclusive: cfg.Alignment.InclusiveBoundary},
		OutputDir:  cfg.Paths.OutputDir,
		DropRoot:   cfg.Paths.DropRoot,
		PathColumn: cfg.Events.PathColumn,
		Manifests:  cfg.Output.Manifests,
	}
}

// eventColumns describes the event table for a log joined against payload columns.
func eventColumns(payload []string, log *series.Log) report.EventColumns {
	cols := report.EventColumns{Payload: payload}
	if log != nil {
		cols.Metric = log.MetricColumn
		cols.Aux = log.AuxColumns
	}
	return cols
}
