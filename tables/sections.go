package tables

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tsawler/timetable/model"
)

// Section labels
const (
	SectionWeekday  = "weekday"
	SectionSaturday = "saturday"
	SectionSunday   = "sunday"
	SectionSchedule = "schedule"
)

// SectionLabels lists every label DetectSections can produce
var SectionLabels = []string{SectionWeekday, SectionSaturday, SectionSunday, SectionSchedule}

// Section is a vertical slice of a page holding one day-type schedule
type Section struct {
	Label  string
	YStart float64
	YEnd   float64
}

// Span returns the section's [YStart, YEnd) interval
func (s Section) Span() model.Span {
	return model.Span{Start: s.YStart, End: s.YEnd}
}

// DetectSections splits a page into day-type sections using the caption
// words found in its text. Sections with an empty range are dropped, so a
// page too short for its margins yields no sections.
func DetectSections(text string, height float64, cfg Config) []Section {
	upper := cases.Upper(language.Und).String(text)
	hasSaturday := strings.Contains(upper, "SATURDAY")
	hasSunday := strings.Contains(upper, "SUNDAY")

	bottom := height - cfg.Margin

	var sections []Section
	switch {
	case hasSaturday && hasSunday:
		mid := height / 2
		sections = []Section{
			{Label: SectionSaturday, YStart: cfg.Margin, YEnd: mid},
			{Label: SectionSunday, YStart: mid + cfg.SectionGap, YEnd: bottom},
		}
	case hasSaturday:
		sections = []Section{{Label: SectionSaturday, YStart: cfg.Margin, YEnd: bottom}}
	case hasSunday:
		sections = []Section{{Label: SectionSunday, YStart: cfg.Margin, YEnd: bottom}}
	case strings.Contains(upper, "MONDAY") && strings.Contains(upper, "FRIDAY"):
		// The band above WeekdayHeaderRatio holds the rotated station captions.
		sections = []Section{{Label: SectionWeekday, YStart: height * cfg.WeekdayHeaderRatio, YEnd: bottom}}
	default:
		sections = []Section{{Label: SectionSchedule, YStart: cfg.Margin, YEnd: bottom}}
	}

	out := sections[:0]
	for _, s := range sections {
		if s.Span().Length() > 0 {
			out = append(out, s)
		}
	}
	return out
}
