package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tsawler/timetable"
	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/store"
	"github.com/tsawler/timetable/tables"
)

// Extraction is the outcome of extracting one PDF to CSV
type Extraction struct {
	Document string
	Result   tables.Result
	Paths    []string
	Warnings []timetable.Warning
	Cached   bool // CSVs already existed and were read back instead
}

// DocumentName returns the name tables of a PDF are stored under: the file
// name without its extension.
func DocumentName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// ExtractToCSV reconstructs the tables of the PDF at path and writes them
// to outDir. With useCache, a document whose CSVs already exist is read
// back from them instead of being extracted again.
func ExtractToCSV(path, outDir string, cfg tables.Config, useCache bool) (*Extraction, error) {
	doc := DocumentName(path)

	if useCache {
		if paths, ok := store.HasCSV(outDir, doc, []string{cfg.LeftDirection, cfg.RightDirection}); ok {
			result := make(tables.Result, len(paths))
			for _, p := range paths {
				table, err := store.ReadCSV(p)
				if err != nil {
					return nil, err
				}
				result[table.Key] = table
			}
			return &Extraction{Document: doc, Result: result, Paths: paths, Cached: true}, nil
		}
	}

	result, warnings, err := timetable.Open(path).WithConfig(cfg).Tables()
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", filepath.Base(path), err)
	}

	paths, err := store.WriteCSV(outDir, doc, result)
	if err != nil {
		return nil, err
	}

	return &Extraction{Document: doc, Result: result, Paths: paths, Warnings: warnings}, nil
}

// Tables returns the extracted tables in key order
func (e *Extraction) Tables() []*model.ScheduleTable {
	out := make([]*model.ScheduleTable, 0, len(e.Result))
	for _, key := range e.Result.Keys() {
		out = append(out, e.Result[key])
	}
	return out
}
