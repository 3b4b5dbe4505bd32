// Package tables reconstructs printed timetables from the positioned words
// of a PDF page.
//
// The source documents carry no table structure. Section boundaries, station
// columns and chronological rows are inferred from word positions and text
// alone, tolerating bare times without an AM/PM suffix, closed-station
// glyphs and column counts that change between print runs.
//
// # Pipeline
//
// For each page the [ScheduleDetector] runs:
//
//  1. [DetectSections] - split the page into day-type sections from caption text
//  2. [ClassifyTokens] - keep time entries and closed-station markers, drop noise
//  3. [GroupRows] - group tokens into physical rows by y-proximity
//  4. [LocateColumns] - header-based column centers, or [ClusterColumns] fallback
//  5. [AssignColumns] - greedy nearest-column assignment with suffix inference
//
// Each section is processed twice, once per half of the page; the left half
// and right half map to the directions named in [Config]. [Assemble] runs the
// detector over every page and aggregates the tables by "<section>_<direction>".
//
// # Configuration
//
// Every tuned constant is a field of [Config]:
//
//	config := tables.DefaultConfig()
//	config.RowTolerance = 4
//	config.HeaderYStart, config.HeaderYEnd = 280, 380
//	result, warnings := tables.Assemble(doc, config)
//
// # Failure Handling
//
// Nothing in this package returns an error for malformed input. Unparseable
// words are dropped silently; empty pages, empty sections, column count
// mismatches and duplicate keys are reported as [Warning] values next to the
// result and never abort the document.
package tables
