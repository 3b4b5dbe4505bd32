package tables

import (
	"math"
	"testing"
)

func TestDetectSections(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		text   string
		height float64
		want   []Section
	}{
		{
			name:   "saturday and sunday",
			text:   "SATURDAY SCHEDULE ... SUNDAY SCHEDULE",
			height: 792,
			want: []Section{
				{Label: SectionSaturday, YStart: 40, YEnd: 396},
				{Label: SectionSunday, YStart: 416, YEnd: 752},
			},
		},
		{
			name:   "saturday only, mixed case",
			text:   "Saturday Service",
			height: 792,
			want:   []Section{{Label: SectionSaturday, YStart: 40, YEnd: 752}},
		},
		{
			name:   "sunday only",
			text:   "SUNDAY & HOLIDAYS",
			height: 600,
			want:   []Section{{Label: SectionSunday, YStart: 40, YEnd: 560}},
		},
		{
			name:   "weekday",
			text:   "MONDAY THROUGH FRIDAY",
			height: 1000,
			want:   []Section{{Label: SectionWeekday, YStart: 240, YEnd: 960}},
		},
		{
			name:   "saturday wins over weekday captions",
			text:   "MONDAY FRIDAY SATURDAY",
			height: 792,
			want:   []Section{{Label: SectionSaturday, YStart: 40, YEnd: 752}},
		},
		{
			name:   "no caption",
			text:   "Special Schedule Presidents Day",
			height: 792,
			want:   []Section{{Label: SectionSchedule, YStart: 40, YEnd: 752}},
		},
		{
			name:   "monday without friday",
			text:   "MONDAY",
			height: 792,
			want:   []Section{{Label: SectionSchedule, YStart: 40, YEnd: 752}},
		},
		{
			name:   "page shorter than margins",
			text:   "",
			height: 60,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectSections(tt.text, tt.height, cfg)
			if len(got) != len(tt.want) {
				t.Fatalf("DetectSections() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i].Label != tt.want[i].Label ||
					math.Abs(got[i].YStart-tt.want[i].YStart) > 1e-9 ||
					math.Abs(got[i].YEnd-tt.want[i].YEnd) > 1e-9 {
					t.Errorf("section %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDetectSections_SplitIsDisjoint(t *testing.T) {
	cfg := DefaultConfig()
	height := 850.0

	got := DetectSections("SATURDAY SUNDAY", height, cfg)
	if len(got) != 2 {
		t.Fatalf("DetectSections() returned %d sections, want 2", len(got))
	}

	sat, sun := got[0], got[1]
	if sat.YEnd != height/2 {
		t.Errorf("saturday ends at %v, want page midpoint %v", sat.YEnd, height/2)
	}
	if gap := sun.YStart - sat.YEnd; gap != cfg.SectionGap {
		t.Errorf("gap between sections = %v, want %v", gap, cfg.SectionGap)
	}
	if sat.Span().Contains(sun.YStart) || sun.Span().Contains(sat.YEnd-0.001) {
		t.Error("sections overlap")
	}
}

func TestDetectSections_CustomMargins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Margin = 10
	cfg.WeekdayHeaderRatio = 0.5

	got := DetectSections("MONDAY-FRIDAY", 400, cfg)
	if len(got) != 1 || got[0].YStart != 200 || got[0].YEnd != 390 {
		t.Errorf("DetectSections() = %+v, want weekday [200, 390)", got)
	}
}
