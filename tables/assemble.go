package tables

import (
	"fmt"
	"sort"

	"github.com/tsawler/timetable/model"
)

// Result maps "<section>_<direction>" keys to reconstructed tables
type Result map[string]*model.ScheduleTable

// Keys returns the table keys in sorted order
func (r Result) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TableCount returns the number of tables
func (r Result) TableCount() int {
	return len(r)
}

// Assembler runs a detector over every page of a document and aggregates
// the tables by key.
type Assembler struct {
	detector Detector
	policy   DuplicatePolicy
}

// NewAssembler creates an assembler driving a ScheduleDetector with config.
func NewAssembler(config Config) *Assembler {
	return &Assembler{
		detector: NewScheduleDetectorWithConfig(config),
		policy:   config.DuplicateKeys,
	}
}

// NewAssemblerWithDetector creates an assembler around any detector.
func NewAssemblerWithDetector(detector Detector, policy DuplicatePolicy) *Assembler {
	return &Assembler{detector: detector, policy: policy}
}

// Assemble reconstructs every table of doc. It is a convenience for
// NewAssembler(config).Assemble(doc.Pages).
func Assemble(doc *model.Document, config Config) (Result, []Warning) {
	if doc == nil {
		return Result{}, nil
	}
	return NewAssembler(config).Assemble(doc.Pages)
}

// Assemble processes pages in order. A page that yields nothing is skipped
// and processing continues. When two pages produce the same key the
// duplicate policy decides: overwrite keeps the later table, append adds the
// later rows when both tables have the same headers and overwrites otherwise.
func (a *Assembler) Assemble(pages []*model.Page) (Result, []Warning) {
	result := make(Result)
	var warnings []Warning

	for _, page := range pages {
		tables, warns := a.detector.Detect(page)
		warnings = append(warnings, warns...)

		for _, table := range tables {
			prev, exists := result[table.Key]
			if !exists {
				result[table.Key] = table
				continue
			}

			if a.policy == DuplicateAppend && sameHeaders(prev.Stations, table.Stations) {
				prev.Rows = append(prev.Rows, table.Rows...)
				warnings = append(warnings, Warning{
					Kind:    WarningDuplicateKey,
					Page:    pageNumber(page),
					Key:     table.Key,
					Message: fmt.Sprintf("appended %d rows to the table from an earlier page", len(table.Rows)),
				})
				continue
			}

			result[table.Key] = table
			warnings = append(warnings, Warning{
				Kind:    WarningDuplicateKey,
				Page:    pageNumber(page),
				Key:     table.Key,
				Message: "replaced the table from an earlier page",
			})
		}
	}

	return result, warnings
}

func sameHeaders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
