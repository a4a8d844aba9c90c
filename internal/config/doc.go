// Package config loads, normalizes, and validates dropsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// batch pipeline and CLI need: where sensor logs and the event index live, how
// their columns are named and timestamps formatted, and the segmentation and
// alignment thresholds.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors. Stage code should not read
// Config directly; the batch package converts it into immutable per-stage
// parameter values once per run.
package config
