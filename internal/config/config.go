package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input and output locations.
type Paths struct {
	LogsDir    string `toml:"logs_dir"`
	LogPattern string `toml:"log_pattern"`
	EventIndex string `toml:"event_index"`
	OutputDir  string `toml:"output_dir"`
	DropRoot   string `toml:"drop_root"`
	LogDir     string `toml:"log_dir"`
}

// Sensor describes the layout of the depth/sensor logs.
type Sensor struct {
	TimestampColumn string   `toml:"timestamp_column"`
	MetricColumn    string   `toml:"metric_column"`
	AuxColumns      []string `toml:"aux_columns"`
	TimestampFormat string   `toml:"timestamp_format"`
	SkipHeaderLines int      `toml:"skip_header_lines"`
}

// Segmentation contains drop detection parameters.
type Segmentation struct {
	SmoothingWindow int     `toml:"smoothing_window"`
	Threshold       float64 `toml:"threshold"`
	MinDurationS    float64 `toml:"min_duration_s"`
}

// Events describes the layout of the event (image) index.
type Events struct {
	TimestampColumn    string `toml:"timestamp_column"`
	TimestampRawColumn string `toml:"timestamp_raw_column"`
	SubsecColumn       string `toml:"subsec_column"`
	TimestampFormat    string `toml:"timestamp_format"`
	PathColumn         string `toml:"path_column"`
}

// Alignment contains matching and membership parameters.
type Alignment struct {
	ToleranceS        float64 `toml:"tolerance_s"`
	BufferS           float64 `toml:"buffer_s"`
	InclusiveBoundary bool    `toml:"inclusive_boundary"`
}

// Output toggles optional artifacts.
type Output struct {
	Catalog     bool   `toml:"catalog"`
	CatalogPath string `toml:"catalog_path"`
	Manifests   bool   `toml:"manifests"`
}

// Batch controls run fan-out.
type Batch struct {
	Workers int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dropsync.
//
// Configuration sections by subsystem:
//   - Paths: sensor log discovery, event index, output locations
//   - Sensor: sensor log columns and timestamp format
//   - Segmentation: smoothing, activation threshold, minimum drop length
//   - Events: event index columns and timestamp format
//   - Alignment: match tolerance, window buffer, boundary policy
//   - Output: SQLite catalog and per-drop manifests
//   - Batch: worker count
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Sensor       Sensor       `toml:"sensor"`
	Segmentation Segmentation `toml:"segmentation"`
	Events       Events       `toml:"events"`
	Alignment    Alignment    `toml:"alignment"`
	Output       Output       `toml:"output"`
	Batch        Batch        `toml:"batch"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dropsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config %s: %w", expanded, err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/dropsync/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dropsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output directories a batch writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.DropRoot} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogPath returns the SQLite catalog location, defaulting into the output directory.
func (c *Config) CatalogPath() string {
	if p := strings.TrimSpace(c.Output.CatalogPath); p != "" {
		return p
	}
	return filepath.Join(c.Paths.OutputDir, "dropsync.db")
}

// EventIndexPath returns the event index location, defaulting into the output directory.
func (c *Config) EventIndexPath() string {
	if p := strings.TrimSpace(c.Paths.EventIndex); p != "" {
		return p
	}
	return filepath.Join(c.Paths.OutputDir, defaultEventIndexName)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
