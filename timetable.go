// Package timetable provides a fluent API for reconstructing PATCO
// timetables from PDF schedules.
//
// Basic usage:
//
//	result, warnings, err := timetable.Open("patco-timetable.pdf").Tables()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", timetable.FormatWarnings(warnings))
//	}
//	for _, key := range result.Keys() {
//	    csv, _ := result[key].ToCSV()
//	    fmt.Println(key, csv)
//	}
//
// With options:
//
//	cfg := tables.DefaultConfig()
//	cfg.DuplicateKeys = tables.DuplicateAppend
//	result, _, err := timetable.Open("special.pdf").
//	    Pages(1, 2).
//	    WithConfig(cfg).
//	    Tables()
//
// For advanced use cases, the lower-level reader and tables packages are
// also available.
package timetable

import (
	"errors"
	"strings"

	"github.com/tsawler/timetable/reader"
	"github.com/tsawler/timetable/tables"
)

// ErrNoFilename is returned by terminal operations of an Extractor that has
// neither a filename nor a reader.
var ErrNoFilename = errors.New("no filename specified")

// Warning is a non-fatal problem met while reconstructing tables.
type Warning = tables.Warning

// Open returns an Extractor for the named PDF. The file is opened by the
// first operation that needs it and closed by Tables or Document.
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromReader extracts from a reader the caller already opened and will
// close:
//
//	r, err := reader.Open("timetable.pdf")
//	...
//	defer r.Close()
//	result, warnings, err := timetable.FromReader(r).Tables()
func FromReader(r *reader.Reader) *Extractor {
	return &Extractor{
		reader:  r,
		opened:  true,
		options: defaultOptions(),
	}
}

// FormatWarnings joins warnings into a single line for logging.
func FormatWarnings(warnings []Warning) string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}

// Must panics on a non-nil error, for programs that treat a missing or
// unreadable PDF as fatal:
//
//	count := timetable.Must(timetable.Open("timetable.pdf").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustTables is Must for Tables and Document. Warnings are discarded.
//
//	result := timetable.MustTables(timetable.Open("timetable.pdf").Tables())
func MustTables[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
