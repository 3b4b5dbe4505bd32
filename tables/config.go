package tables

import (
	"errors"
	"fmt"
)

// OverflowPolicy decides what happens to physical columns beyond the known
// station list.
type OverflowPolicy string

const (
	// OverflowSynthesize keeps surplus columns and labels them "Station_N".
	OverflowSynthesize OverflowPolicy = "synthesize"
	// OverflowTruncate drops surplus columns from every row.
	OverflowTruncate OverflowPolicy = "truncate"
)

// DuplicatePolicy decides how a table key produced by more than one page is
// resolved.
type DuplicatePolicy string

const (
	// DuplicateOverwrite lets the later page's table replace the earlier one.
	DuplicateOverwrite DuplicatePolicy = "overwrite"
	// DuplicateAppend appends the later page's rows when the headers match.
	DuplicateAppend DuplicatePolicy = "append"
)

// Default direction names for the two halves of a page.
const (
	Westbound = "westbound"
	Eastbound = "eastbound"
)

// WestboundStations is the station order of the westbound timetable.
var WestboundStations = []string{
	"Lindenwold", "Ashland", "Woodcrest", "Haddonfield", "Westmont",
	"Collingswood", "Ferry Avenue", "Broadway", "City Hall", "Franklin Square",
	"8th & Market", "9/10th & Locust", "12/13th & Locust", "15/16th & Locust",
}

// EastboundStations returns the westbound station order reversed.
func EastboundStations() []string {
	out := make([]string, len(WestboundStations))
	for i, s := range WestboundStations {
		out[len(out)-1-i] = s
	}
	return out
}

// Config holds the calibration of the reconstruction heuristics. All
// distances are in document units.
type Config struct {
	// Top and bottom margin excluded from every section
	Margin float64 `json:"margin"`

	// Vertical gap between the Saturday and Sunday halves of a split page
	SectionGap float64 `json:"section_gap"`

	// Fraction of the page height reserved for rotated captions on weekday pages
	WeekdayHeaderRatio float64 `json:"weekday_header_ratio"`

	// Y band holding the rotated station captions
	HeaderYStart float64 `json:"header_y_start"`
	HeaderYEnd   float64 `json:"header_y_end"`

	// Pitch header x-positions are rounded to when clustering captions
	HeaderPitch float64 `json:"header_pitch"`

	// Minimum x gap that separates two columns in fallback clustering
	MinColumnGap float64 `json:"min_column_gap"`

	// Maximum y distance from a row's reference y for a token to join it
	RowTolerance float64 `json:"row_tolerance"`

	// Rows with fewer tokens are treated as stray text
	MinRowTokens int `json:"min_row_tokens"`

	// Suffix applied to bare times when a row has no suffixed time ("A" or "P")
	DefaultSuffix string `json:"default_suffix"`

	// Glyphs marking a station closed for an entry
	ClosedMarkers []string `json:"closed_markers"`

	// Direction names of the left and right page halves
	LeftDirection  string `json:"left_direction"`
	RightDirection string `json:"right_direction"`

	// Canonical station order per direction
	Stations map[string][]string `json:"stations"`

	ColumnOverflow OverflowPolicy  `json:"column_overflow"`
	DuplicateKeys  DuplicatePolicy `json:"duplicate_keys"`
}

// DefaultConfig returns the calibration for the PATCO timetable layout
func DefaultConfig() Config {
	return Config{
		Margin:             40,
		SectionGap:         20,
		WeekdayHeaderRatio: 0.24,
		HeaderYStart:       300,
		HeaderYEnd:         400,
		HeaderPitch:        37,
		MinColumnGap:       12,
		RowTolerance:       6,
		MinRowTokens:       5,
		DefaultSuffix:      "A",
		ClosedMarkers:      []string{"à", "→"},
		LeftDirection:      Westbound,
		RightDirection:     Eastbound,
		Stations: map[string][]string{
			Westbound: append([]string(nil), WestboundStations...),
			Eastbound: EastboundStations(),
		},
		ColumnOverflow: OverflowSynthesize,
		DuplicateKeys:  DuplicateOverwrite,
	}
}

// Validate checks that the configuration can drive the detector.
func (c Config) Validate() error {
	var errs []error

	if c.Margin < 0 {
		errs = append(errs, fmt.Errorf("margin must not be negative, got %v", c.Margin))
	}
	if c.SectionGap < 0 {
		errs = append(errs, fmt.Errorf("section gap must not be negative, got %v", c.SectionGap))
	}
	if c.WeekdayHeaderRatio < 0 || c.WeekdayHeaderRatio >= 1 {
		errs = append(errs, fmt.Errorf("weekday header ratio must be in [0, 1), got %v", c.WeekdayHeaderRatio))
	}
	if c.HeaderYEnd < c.HeaderYStart {
		errs = append(errs, fmt.Errorf("header band [%v, %v] is inverted", c.HeaderYStart, c.HeaderYEnd))
	}
	if c.HeaderPitch <= 0 {
		errs = append(errs, fmt.Errorf("header pitch must be positive, got %v", c.HeaderPitch))
	}
	if c.MinColumnGap < 0 {
		errs = append(errs, fmt.Errorf("minimum column gap must not be negative, got %v", c.MinColumnGap))
	}
	if c.RowTolerance < 0 {
		errs = append(errs, fmt.Errorf("row tolerance must not be negative, got %v", c.RowTolerance))
	}
	if c.MinRowTokens < 1 {
		errs = append(errs, fmt.Errorf("minimum row tokens must be at least 1, got %d", c.MinRowTokens))
	}
	if c.DefaultSuffix != "A" && c.DefaultSuffix != "P" {
		errs = append(errs, fmt.Errorf("default suffix must be A or P, got %q", c.DefaultSuffix))
	}
	if c.LeftDirection == "" || c.RightDirection == "" {
		errs = append(errs, errors.New("both direction names are required"))
	} else if c.LeftDirection == c.RightDirection {
		errs = append(errs, fmt.Errorf("left and right direction are both %q", c.LeftDirection))
	}
	switch c.ColumnOverflow {
	case OverflowSynthesize, OverflowTruncate:
	default:
		errs = append(errs, fmt.Errorf("unknown column overflow policy %q", c.ColumnOverflow))
	}
	switch c.DuplicateKeys {
	case DuplicateOverwrite, DuplicateAppend:
	default:
		errs = append(errs, fmt.Errorf("unknown duplicate key policy %q", c.DuplicateKeys))
	}

	return errors.Join(errs...)
}

// StationsFor returns the canonical station order for a direction, or nil.
func (c Config) StationsFor(direction string) []string {
	return c.Stations[direction]
}

// Clone creates a deep copy of Config.
func (c Config) Clone() Config {
	out := c
	out.ClosedMarkers = append([]string(nil), c.ClosedMarkers...)
	if c.Stations != nil {
		out.Stations = make(map[string][]string, len(c.Stations))
		for dir, stations := range c.Stations {
			out.Stations[dir] = append([]string(nil), stations...)
		}
	}
	return out
}
