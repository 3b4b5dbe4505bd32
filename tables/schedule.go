package tables

import (
	"fmt"
	"math"

	"github.com/tsawler/timetable/model"
)

// ScheduleDetector reconstructs the day-type timetables printed on a page,
// one table per section and direction half.
type ScheduleDetector struct {
	config Config
}

// NewScheduleDetector creates a detector with the default calibration.
func NewScheduleDetector() *ScheduleDetector {
	return &ScheduleDetector{
		config: DefaultConfig(),
	}
}

// NewScheduleDetectorWithConfig creates a detector with a custom calibration.
// The configuration is not validated; use Configure for that.
func NewScheduleDetectorWithConfig(config Config) *ScheduleDetector {
	return &ScheduleDetector{config: config.Clone()}
}

// Name returns the detector's identifier ("schedule").
func (d *ScheduleDetector) Name() string {
	return "schedule"
}

// Configure validates and sets the detector configuration.
func (d *ScheduleDetector) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	d.config = config.Clone()
	return nil
}

// Config returns a copy of the active configuration.
func (d *ScheduleDetector) Config() Config {
	return d.config.Clone()
}

// half is one direction side of a page
type half struct {
	direction string
	xs        model.Span
}

// Detect reconstructs the tables of one page. A page or section that yields
// nothing is reported as a warning and contributes no table.
func (d *ScheduleDetector) Detect(page *model.Page) ([]*model.ScheduleTable, []Warning) {
	var warnings []Warning

	if page == nil || page.IsEmpty() {
		return nil, []Warning{{Kind: WarningEmptyPage, Page: pageNumber(page), Message: "page has no text"}}
	}

	sections := DetectSections(page.Text(), page.Height, d.config)
	if len(sections) == 0 {
		return nil, []Warning{{Kind: WarningEmptyPage, Page: page.Number, Message: "page is too short for any section"}}
	}

	mid := page.Midpoint()
	halves := []half{
		{direction: d.config.LeftDirection, xs: model.Span{Start: math.Inf(-1), End: mid}},
		{direction: d.config.RightDirection, xs: model.Span{Start: mid, End: math.Inf(1)}},
	}

	var tables []*model.ScheduleTable
	for _, section := range sections {
		for _, h := range halves {
			table, warns := d.detectHalf(page, section, h)
			warnings = append(warnings, warns...)
			if table != nil {
				tables = append(tables, table)
			}
		}
	}

	if len(tables) == 0 {
		warnings = append(warnings, Warning{Kind: WarningEmptyPage, Page: page.Number, Message: "no schedule rows found"})
	}

	return tables, warnings
}

// detectHalf runs classification, row grouping, column location and
// assignment for one section of one page half.
func (d *ScheduleDetector) detectHalf(page *model.Page, section Section, h half) (*model.ScheduleTable, []Warning) {
	key := model.TableKey(section.Label, h.direction)

	tokens := ClassifyTokens(page.FragmentsIn(h.xs, section.Span()), d.config.ClosedMarkers)
	rows := GroupRows(tokens, d.config.RowTolerance)

	header := HeaderColumns(page.Fragments, h.xs, d.config)
	columns := LocateColumns(header, rows, d.config.MinColumnGap)

	kept := FilterRows(rows, d.config.MinRowTokens)
	if len(kept) == 0 || len(columns) == 0 {
		return nil, []Warning{{
			Kind:    WarningEmptySection,
			Page:    page.Number,
			Key:     key,
			Message: fmt.Sprintf("%d rows, %d qualifying, %d columns", len(rows), len(kept), len(columns)),
		}}
	}

	cells := make([][]string, len(kept))
	for i, row := range kept {
		cells[i] = AssignColumns(row, columns, d.config.DefaultSuffix)
	}

	return buildTable(section.Label, h.direction, cells, len(columns), d.config, page.Number)
}

// buildTable labels the physical columns with station names, reconciling a
// column count that differs from the known station list.
func buildTable(section, direction string, cells [][]string, width int, cfg Config, pageNum int) (*model.ScheduleTable, []Warning) {
	stations := cfg.StationsFor(direction)
	labels, keep := StationLabels(width, stations, cfg.ColumnOverflow)

	table := model.NewScheduleTable(section, direction, labels)
	for _, row := range cells {
		table.Rows = append(table.Rows, append([]string(nil), row[:keep]...))
	}

	var warnings []Warning
	if width != len(stations) {
		warnings = append(warnings, Warning{
			Kind:    WarningColumnMismatch,
			Page:    pageNum,
			Key:     table.Key,
			Message: fmt.Sprintf("found %d columns for %d stations", width, len(stations)),
		})
	}

	return table, warnings
}

// StationLabels returns the column headers for width physical columns and
// how many columns to keep. With fewer columns than stations the leading
// station names are used. Surplus columns are either named "Station_N"
// (N is the 1-based column position) or dropped, depending on policy.
func StationLabels(width int, stations []string, policy OverflowPolicy) ([]string, int) {
	if width <= len(stations) {
		return append([]string(nil), stations[:width]...), width
	}
	if policy == OverflowTruncate {
		return append([]string(nil), stations...), len(stations)
	}

	labels := make([]string, width)
	copy(labels, stations)
	for i := len(stations); i < width; i++ {
		labels[i] = fmt.Sprintf("Station_%d", i+1)
	}
	return labels, width
}

func pageNumber(page *model.Page) int {
	if page == nil {
		return 0
	}
	return page.Number
}
