// Package store persists reconstructed timetables: CSV files per table, a
// SQLite database of extraction runs and a JSON bundle for static clients.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/tables"
)

// CSVName returns the file name of one table of a document
func CSVName(prefix, key string) string {
	return prefix + "_" + key + ".csv"
}

// WriteCSV writes every table of result to dir as <prefix>_<key>.csv with
// the station names as header row. Paths are returned in key order.
func WriteCSV(dir, prefix string, result tables.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	paths := make([]string, 0, len(result))
	for _, key := range result.Keys() {
		path := filepath.Join(dir, CSVName(prefix, key))
		if err := writeTable(path, result[key]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeTable(path string, table *model.ScheduleTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(table.Records()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// HasCSV returns the CSV files already written for prefix, in key order.
// Only names WriteCSV produces for one of the section labels and the given
// directions count, so a document whose name extends prefix never matches.
// The second result is false when there are none, meaning the document
// still needs extraction.
func HasCSV(dir, prefix string, directions []string) ([]string, bool) {
	var paths []string
	for _, section := range tables.SectionLabels {
		for _, direction := range directions {
			path := filepath.Join(dir, CSVName(prefix, model.TableKey(section, direction)))
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				paths = append(paths, path)
			}
		}
	}
	if len(paths) == 0 {
		return nil, false
	}
	sort.Strings(paths)
	return paths, true
}

// ReadCSV loads a table written by WriteCSV. Section and direction are taken
// from the last two underscore-separated parts of the file name.
func ReadCSV(path string) (*model.ScheduleTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(stem, "_")
	section, direction := "", ""
	if len(parts) >= 2 {
		section, direction = parts[len(parts)-2], parts[len(parts)-1]
	}

	table := model.NewScheduleTable(section, direction, records[0])
	table.Rows = append(table.Rows, records[1:]...)
	return table, nil
}

// ClearCSV deletes every CSV file in dir
func ClearCSV(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return 0, err
	}
	for i, path := range matches {
		if err := os.Remove(path); err != nil {
			return i, fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}
	return len(matches), nil
}
