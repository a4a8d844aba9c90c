package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSensor()
	c.normalizeEvents()
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = defaultWorkers()
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogsDir) == "" {
		c.Paths.LogsDir = defaultLogsDir
	}
	if c.Paths.LogsDir, err = expandPath(c.Paths.LogsDir); err != nil {
		return fmt.Errorf("paths.logs_dir: %w", err)
	}
	c.Paths.LogPattern = strings.TrimSpace(c.Paths.LogPattern)
	if c.Paths.LogPattern == "" {
		c.Paths.LogPattern = defaultLogPattern
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DropRoot) == "" {
		c.Paths.DropRoot = defaultDropRoot
	}
	if c.Paths.DropRoot, err = expandPath(c.Paths.DropRoot); err != nil {
		return fmt.Errorf("paths.drop_root: %w", err)
	}
	if c.Paths.EventIndex, err = expandPath(strings.TrimSpace(c.Paths.EventIndex)); err != nil {
		return fmt.Errorf("paths.event_index: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSensor() {
	c.Sensor.TimestampColumn = strings.TrimSpace(c.Sensor.TimestampColumn)
	if c.Sensor.TimestampColumn == "" {
		c.Sensor.TimestampColumn = defaultSensorTimestampColumn
	}
	c.Sensor.MetricColumn = strings.TrimSpace(c.Sensor.MetricColumn)
	if c.Sensor.MetricColumn == "" {
		c.Sensor.MetricColumn = defaultSensorMetricColumn
	}
	c.Sensor.TimestampFormat = strings.TrimSpace(c.Sensor.TimestampFormat)
	if len(c.Sensor.AuxColumns) > 0 {
		cols := make([]string, 0, len(c.Sensor.AuxColumns))
		seen := make(map[string]struct{}, len(c.Sensor.AuxColumns))
		for _, col := range c.Sensor.AuxColumns {
			col = strings.TrimSpace(col)
			if col == "" {
				continue
			}
			if _, ok := seen[col]; ok {
				continue
			}
			seen[col] = struct{}{}
			cols = append(cols, col)
		}
		c.Sensor.AuxColumns = cols
	}
}

func (c *Config) normalizeEvents() {
	c.Events.TimestampColumn = strings.TrimSpace(c.Events.TimestampColumn)
	c.Events.TimestampRawColumn = strings.TrimSpace(c.Events.TimestampRawColumn)
	c.Events.SubsecColumn = strings.TrimSpace(c.Events.SubsecColumn)
	c.Events.TimestampFormat = strings.TrimSpace(c.Events.TimestampFormat)
	c.Events.PathColumn = strings.TrimSpace(c.Events.PathColumn)
	if c.Events.TimestampColumn == "" && c.Events.TimestampRawColumn == "" {
		c.Events.TimestampColumn = defaultEventTimestampColumn
		c.Events.TimestampRawColumn = defaultEventRawColumn
	}
}

func (c *Config) normalizeOutput() error {
	var err error
	if c.Output.CatalogPath, err = expandPath(strings.TrimSpace(c.Output.CatalogPath)); err != nil {
		return fmt.Errorf("output.catalog_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
