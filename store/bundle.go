package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tsawler/timetable/tables"
)

// DefaultSpecialURL is linked from special schedules whose PDF is unknown
const DefaultSpecialURL = "https://www.ridepatco.org/schedules/"

// Bundle is the single JSON document a static client loads
type Bundle struct {
	LastUpdated time.Time `json:"last_updated"`
	StandardURL string    `json:"standard_url"`
	Stations    Stations  `json:"stations"`
	Schedules   Schedules `json:"schedules"`
}

// Stations lists the canonical station order of the tables printed on the
// left (westbound) and right (eastbound) page halves, whatever the
// calibration names those directions
type Stations struct {
	Westbound []string `json:"westbound"`
	Eastbound []string `json:"eastbound"`
}

// Schedules holds table records: a header row of station names followed by
// the data rows.
type Schedules struct {
	// direction -> section -> records
	Standard map[string]map[string][][]string `json:"standard"`
	// special key -> schedule
	Special map[string]*SpecialSchedule `json:"special"`
}

// SpecialSchedule is one special-service document. It encodes as
// {"url": ..., "<direction>": records, ...}.
type SpecialSchedule struct {
	URL        string
	Directions map[string][][]string
}

// MarshalJSON flattens the directions next to the URL
func (s *SpecialSchedule) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Directions)+1)
	for dir, records := range s.Directions {
		out[dir] = records
	}
	out["url"] = s.URL
	return json.Marshal(out)
}

// BundleOptions carries what the bundle needs besides the tables
type BundleOptions struct {
	// Documents whose name starts with StandardPrefix are the standard timetable
	StandardPrefix string
	StandardURL    string

	// PDF URL per special document name
	SpecialURLs       map[string]string
	DefaultSpecialURL string

	Stations Stations
	Now      time.Time
}

// BuildBundle arranges the tables of every document. Standard tables are
// indexed by direction and section. Special tables are indexed by document
// name, extended with the section unless it is the generic "schedule".
func BuildBundle(docs map[string]tables.Result, opts BundleOptions) *Bundle {
	b := &Bundle{
		LastUpdated: opts.Now,
		StandardURL: opts.StandardURL,
		Stations:    opts.Stations,
		Schedules: Schedules{
			Standard: make(map[string]map[string][][]string),
			Special:  make(map[string]*SpecialSchedule),
		},
	}

	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		result := docs[name]
		for _, key := range result.Keys() {
			table := result[key]

			if opts.StandardPrefix != "" && strings.HasPrefix(name, opts.StandardPrefix) {
				byDirection := b.Schedules.Standard[table.Direction]
				if byDirection == nil {
					byDirection = make(map[string][][]string)
					b.Schedules.Standard[table.Direction] = byDirection
				}
				byDirection[table.Section] = table.Records()
				continue
			}

			specialKey := name
			if table.Section != tables.SectionSchedule {
				specialKey = name + "_" + table.Section
			}
			special := b.Schedules.Special[specialKey]
			if special == nil {
				special = &SpecialSchedule{
					URL:        specialURL(name, opts),
					Directions: make(map[string][][]string),
				}
				b.Schedules.Special[specialKey] = special
			}
			special.Directions[table.Direction] = table.Records()
		}
	}

	return b
}

func specialURL(document string, opts BundleOptions) string {
	if u, ok := opts.SpecialURLs[document]; ok && u != "" {
		return u
	}
	if opts.DefaultSpecialURL != "" {
		return opts.DefaultSpecialURL
	}
	return DefaultSpecialURL
}

// WriteBundle writes b to path, replacing any previous bundle atomically.
func WriteBundle(path string, b *Bundle) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save bundle: %w", err)
	}
	return nil
}
