package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSensor(); err != nil {
		return err
	}
	if err := c.validateSegmentation(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if c.Batch.Workers < 1 {
		return errors.New("batch.workers must be positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if _, err := filepath.Match(c.Paths.LogPattern, "data_1.csv"); err != nil {
		return fmt.Errorf("paths.log_pattern %q is not a valid glob: %w", c.Paths.LogPattern, err)
	}
	if strings.ContainsRune(c.Paths.LogPattern, filepath.Separator) {
		return errors.New("paths.log_pattern must match file names, not paths")
	}
	return nil
}

func (c *Config) validateSensor() error {
	if c.Sensor.SkipHeaderLines < 0 {
		return errors.New("sensor.skip_header_lines must be >= 0")
	}
	if c.Sensor.TimestampColumn == c.Sensor.MetricColumn {
		return errors.New("sensor.timestamp_column and sensor.metric_column must differ")
	}
	for _, col := range c.Sensor.AuxColumns {
		if col == c.Sensor.TimestampColumn || col == c.Sensor.MetricColumn {
			return fmt.Errorf("sensor.aux_columns must not repeat %q", col)
		}
	}
	return nil
}

func (c *Config) validateSegmentation() error {
	w := c.Segmentation.SmoothingWindow
	if w < 1 {
		return errors.New("segmentation.smoothing_window must be >= 1")
	}
	if w > 1 && w%2 == 0 {
		return fmt.Errorf("segmentation.smoothing_window must be odd, got %d", w)
	}
	if err := ensureFinite(map[string]float64{
		"segmentation.threshold":      c.Segmentation.Threshold,
		"segmentation.min_duration_s": c.Segmentation.MinDurationS,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAlignment() error {
	if err := ensureFinite(map[string]float64{
		"alignment.tolerance_s": c.Alignment.ToleranceS,
		"alignment.buffer_s":    c.Alignment.BufferS,
	}); err != nil {
		return err
	}
	if c.Alignment.ToleranceS < 0 {
		return errors.New("alignment.tolerance_s must be >= 0")
	}
	if c.Alignment.BufferS < 0 {
		return errors.New("alignment.buffer_s must be >= 0")
	}
	return nil
}

func ensureFinite(values map[string]float64) error {
	for key, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%s must be a finite number", key)
		}
	}
	return nil
}
