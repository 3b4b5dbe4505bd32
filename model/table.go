package model

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// ScheduleTable is one reconstructed timetable: rows in chronological order,
// columns labelled by station name.
type ScheduleTable struct {
	Key       string // "<section>_<direction>"
	Section   string
	Direction string
	Stations  []string
	Rows      [][]string
}

// TableKey builds the "<section>_<direction>" key tables are indexed by.
func TableKey(section, direction string) string {
	return section + "_" + direction
}

// NewScheduleTable creates an empty table for a section and direction
func NewScheduleTable(section, direction string, stations []string) *ScheduleTable {
	return &ScheduleTable{
		Key:       TableKey(section, direction),
		Section:   section,
		Direction: direction,
		Stations:  stations,
		Rows:      make([][]string, 0),
	}
}

// RowCount returns the number of rows
func (t *ScheduleTable) RowCount() int {
	return len(t.Rows)
}

// AppendRow adds a row. The row must have one cell per station.
func (t *ScheduleTable) AppendRow(cells []string) error {
	if len(cells) != len(t.Stations) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.Stations))
	}
	t.Rows = append(t.Rows, cells)
	return nil
}

// Column returns every cell of the named station in row order.
func (t *ScheduleTable) Column(station string) ([]string, bool) {
	idx := -1
	for i, s := range t.Stations {
		if s == station {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	col := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		col[i] = row[idx]
	}
	return col, true
}

// Records returns the header row followed by the data rows.
func (t *ScheduleTable) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, append([]string(nil), t.Stations...))
	for _, row := range t.Rows {
		records = append(records, append([]string(nil), row...))
	}
	return records
}

// ToCSV converts the table to CSV with the station names as header row
func (t *ScheduleTable) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(t.Records()); err != nil {
		return "", fmt.Errorf("writing csv: %w", err)
	}
	return buf.String(), nil
}

// ToMarkdown converts the table to markdown format
func (t *ScheduleTable) ToMarkdown() string {
	if len(t.Stations) == 0 {
		return ""
	}

	var sb strings.Builder

	writeRow := func(cells []string) {
		for _, cell := range cells {
			sb.WriteString("| ")
			sb.WriteString(strings.ReplaceAll(cell, "|", "\\|"))
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}

	writeRow(t.Stations)
	for range t.Stations {
		sb.WriteString("|---")
	}
	sb.WriteString("|\n")
	for _, row := range t.Rows {
		writeRow(row)
	}

	return sb.String()
}
