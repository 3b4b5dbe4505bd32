package tables

import (
	"reflect"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.HeaderPitch != 37 || cfg.MinColumnGap != 12 || cfg.RowTolerance != 6 || cfg.MinRowTokens != 5 {
		t.Errorf("DefaultConfig() calibration changed: %+v", cfg)
	}
	if len(cfg.StationsFor(Westbound)) != 14 {
		t.Errorf("westbound has %d stations, want 14", len(cfg.StationsFor(Westbound)))
	}
	if cfg.StationsFor("northbound") != nil {
		t.Error("StationsFor(unknown) should be nil")
	}
}

func TestEastboundStations(t *testing.T) {
	east := EastboundStations()
	if east[0] != "15/16th & Locust" || east[len(east)-1] != "Lindenwold" {
		t.Errorf("EastboundStations() = %v", east)
	}
	if WestboundStations[0] != "Lindenwold" {
		t.Error("EastboundStations() modified WestboundStations")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		substr string
	}{
		{"negative margin", func(c *Config) { c.Margin = -1 }, "margin"},
		{"inverted header band", func(c *Config) { c.HeaderYStart = 500 }, "header band"},
		{"zero pitch", func(c *Config) { c.HeaderPitch = 0 }, "pitch"},
		{"zero min row tokens", func(c *Config) { c.MinRowTokens = 0 }, "row tokens"},
		{"bad suffix", func(c *Config) { c.DefaultSuffix = "X" }, "suffix"},
		{"same directions", func(c *Config) { c.RightDirection = c.LeftDirection }, "both"},
		{"missing direction", func(c *Config) { c.LeftDirection = "" }, "direction"},
		{"bad overflow", func(c *Config) { c.ColumnOverflow = "drop" }, "overflow"},
		{"bad duplicates", func(c *Config) { c.DuplicateKeys = "merge" }, "duplicate"},
		{"weekday ratio", func(c *Config) { c.WeekdayHeaderRatio = 1 }, "ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.substr)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	c := cfg.Clone()

	c.ClosedMarkers[0] = "x"
	c.Stations[Westbound][0] = "x"

	if cfg.ClosedMarkers[0] == "x" || cfg.Stations[Westbound][0] == "x" {
		t.Error("Clone() shares slices with the original")
	}
	if !reflect.DeepEqual(DefaultConfig(), cfg) {
		t.Error("Clone() modified the original")
	}
}

func TestWarningString(t *testing.T) {
	tests := []struct {
		w    Warning
		want string
	}{
		{Warning{Kind: WarningEmptySection, Page: 2, Key: "weekday_eastbound", Message: "no rows"}, "page 2: weekday_eastbound: no rows"},
		{Warning{Kind: WarningEmptyPage, Page: 4, Message: "page has no text"}, "page 4: page has no text"},
		{Warning{Kind: WarningDuplicateKey, Key: "sunday_westbound", Message: "replaced"}, "sunday_westbound: replaced"},
		{Warning{Message: "plain"}, "plain"},
	}

	for _, tt := range tests {
		if got := tt.w.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if WarningColumnMismatch.String() != "column_mismatch" || WarningKind(99).String() != "unknown" {
		t.Error("WarningKind.String() wrong")
	}
}
