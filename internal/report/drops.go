package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"dropsync/internal/align"
	"dropsync/internal/fileutil"
	"dropsync/internal/segment"
	"dropsync/internal/series"
)

// DropManifest is written as drop_metadata.yaml in each drop folder.
type DropManifest struct {
	DropID     int     `yaml:"drop_id"`
	Run        string  `yaml:"run"`
	SourceLog  string  `yaml:"source_log"`
	StartTime  string  `yaml:"start_time"`
	EndTime    string  `yaml:"end_time"`
	DurationS  float64 `yaml:"duration_s"`
	StartIndex int     `yaml:"start_index"`
	EndIndex   int     `yaml:"end_index"`
	MaxMetric  float64 `yaml:"max_metric"`
	MeanMetric float64 `yaml:"mean_metric"`
	Samples    int     `yaml:"samples"`
	EventCount int     `yaml:"event_count"`
}

// DropSet describes where and how one run's drop folders are written.
type DropSet struct {
	Root      string
	Run       string
	SourceLog string
	Columns   EventColumns
	// PathColumn names the payload column listed in events_fullpath.txt.
	PathColumn string
	Manifests  bool
}

// DropName returns the folder name for an interval id, e.g. Drop03.
func DropName(id int) string {
	return fmt.Sprintf("Drop%02d", id)
}

// RunDir returns <root>/data_<run>.
func (s DropSet) RunDir() string {
	return filepath.Join(s.Root, "data_"+s.Run)
}

// Manifest builds the metadata for one interval.
func (s DropSet) Manifest(iv segment.Interval, events int) DropManifest {
	return DropManifest{
		DropID:     iv.ID,
		Run:        s.Run,
		SourceLog:  s.SourceLog,
		StartTime:  FormatTime(iv.Start),
		EndTime:    FormatTime(iv.End),
		DurationS:  series.Seconds(iv.Duration()),
		StartIndex: iv.StartIndex,
		EndIndex:   iv.EndIndex,
		MaxMetric:  iv.MaxMetric,
		MeanMetric: iv.MeanMetric,
		Samples:    iv.Samples,
		EventCount: events,
	}
}

// WriteDrops writes one folder per interval that received events, in interval
// order, and returns the folders written. Intervals without events get no folder.
func WriteDrops(s DropSet, intervals []segment.Interval, groups map[int][]align.Event) ([]string, error) {
	pathIdx := -1
	for i, name := range s.Columns.Payload {
		if strings.EqualFold(name, s.PathColumn) {
			pathIdx = i
			break
		}
	}

	var written []string
	for _, iv := range intervals {
		events := groups[iv.ID]
		if len(events) == 0 {
			continue
		}
		name := DropName(iv.ID)
		dir := filepath.Join(s.RunDir(), name)
		if err := WriteCSV(filepath.Join(dir, name+"_events.csv"), Events(s.Columns, events)); err != nil {
			return written, fmt.Errorf("write %s events: %w", name, err)
		}
		if s.Manifests {
			if err := writeManifest(filepath.Join(dir, "drop_metadata.yaml"), s.Manifest(iv, len(events))); err != nil {
				return written, fmt.Errorf("write %s metadata: %w", name, err)
			}
			if pathIdx >= 0 {
				if err := fileutil.WriteLines(filepath.Join(dir, "events_fullpath.txt"), eventPaths(events, pathIdx)); err != nil {
					return written, fmt.Errorf("write %s path list: %w", name, err)
				}
			}
		}
		written = append(written, dir)
	}
	return written, nil
}

func writeManifest(path string, m DropManifest) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	})
}

// ReadManifest decodes a drop_metadata.yaml document.
func ReadManifest(r io.Reader) (DropManifest, error) {
	var m DropManifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return DropManifest{}, err
	}
	return m, nil
}

func eventPaths(events []align.Event, idx int) []string {
	paths := make([]string, 0, len(events))
	for _, ev := range events {
		if idx < len(ev.Payload) {
			if p := strings.TrimSpace(ev.Payload[idx]); p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths
}
