package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"dropsync/internal/faults"
)

// Run is one sensor log scheduled for processing.
type Run struct {
	Label string
	Path  string
}

// LabelFor derives a run label from a sensor log path: the trailing digits of
// the file stem (data_53.csv -> 53), else the whole stem.
func LabelFor(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	end := len(stem)
	start := end
	for start > 0 && stem[start-1] >= '0' && stem[start-1] <= '9' {
		start--
	}
	if start == end {
		return stem
	}
	return stem[start:end]
}

// Discover lists logs in dir matching pattern, ordered by label. When labels
// is non-empty only those runs are returned; an unknown label is an error.
func Discover(dir, pattern string, labels []string) ([]Run, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: logs directory %s: %w", faults.ErrMissingInput, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: logs directory %s is not a directory", faults.ErrMissingInput, dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: log pattern %q: %w", faults.ErrConfiguration, pattern, err)
	}

	runs := make([]Run, 0, len(matches))
	seen := make(map[string]string, len(matches))
	for _, path := range matches {
		if fi, statErr := os.Stat(path); statErr != nil || fi.IsDir() {
			continue
		}
		label := LabelFor(path)
		if prev, dup := seen[label]; dup {
			return nil, fmt.Errorf("%w: %s and %s share run label %q", faults.ErrConfiguration, prev, path, label)
		}
		seen[label] = path
		runs = append(runs, Run{Label: label, Path: path})
	}
	sort.Slice(runs, func(i, j int) bool {
		return labelLess(runs[i].Label, runs[j].Label)
	})

	if len(labels) == 0 {
		return runs, nil
	}
	wanted := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if _, ok := seen[l]; !ok {
			return nil, fmt.Errorf("%w: no sensor log for run %q in %s", faults.ErrMissingInput, l, dir)
		}
		wanted[l] = struct{}{}
	}
	filtered := runs[:0]
	for _, r := range runs {
		if _, ok := wanted[r.Label]; ok {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// labelLess orders numeric labels numerically and places them before
// non-numeric labels, which sort lexically.
func labelLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
