package testsupport

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

// WriteCSV writes header and rows to path, creating parent directories.
func WriteCSV(t testing.TB, path string, header []string, rows [][]string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		t.Fatalf("write header %s: %v", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows %s: %v", path, err)
	}
}

// WriteSensorLog writes a Timestamp,Depth log with one row per depth value,
// starting at start and spaced by step.
func WriteSensorLog(t testing.TB, path string, start time.Time, step time.Duration, depths ...float64) {
	t.Helper()

	rows := make([][]string, 0, len(depths))
	for i, d := range depths {
		ts := start.Add(time.Duration(i) * step)
		rows = append(rows, []string{
			ts.UTC().Format("2006-01-02 15:04:05.000"),
			strconv.FormatFloat(d, 'f', -1, 64),
		})
	}
	WriteCSV(t, path, []string{"Timestamp", "Depth"}, rows)
}

// WriteEventIndex writes an image index with filename, full_path, and
// timestamp_raw columns in EXIF format.
func WriteEventIndex(t testing.TB, path string, times ...time.Time) {
	t.Helper()

	rows := make([][]string, 0, len(times))
	for i, ts := range times {
		name := "IMG_" + strconv.Itoa(i+1) + ".JPG"
		rows = append(rows, []string{
			name,
			filepath.Join("/images", name),
			ts.UTC().Format("2006:01:02 15:04:05"),
		})
	}
	WriteCSV(t, path, []string{"filename", "full_path", "timestamp_raw"}, rows)
}

// ReadFile returns the content of path or fails the test.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
