// Command timetable extracts the schedule tables of one PATCO timetable PDF
// to CSV files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tsawler/timetable"
	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/fetch"
	"github.com/tsawler/timetable/pipeline"
	"github.com/tsawler/timetable/tables"
)

const maxAge = 7 * 24 * time.Hour

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("timetable", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", ".", "Output directory")
	noCache := fs.Bool("no-cache", false, "Force re-extraction")
	noCleanup := fs.Bool("no-cleanup", false, "Skip cleanup of old files")
	calibration := fs.String("calibration", "", "JSON calibration file overriding the layout constants")
	markdown := fs.Bool("markdown", false, "Print the tables as markdown")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: timetable [flags] file.pdf")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	pdfPath := fs.Arg(0)
	if _, err := os.Stat(pdfPath); err != nil {
		fmt.Fprintf(stderr, "Error: %s not found\n", pdfPath)
		return 1
	}

	cfg := tables.DefaultConfig()
	if *calibration != "" {
		var err error
		if cfg, err = config.LoadCalibration(*calibration); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	rule := strings.Repeat("=", 60)
	fmt.Fprintln(stdout, rule)
	fmt.Fprintln(stdout, "PATCO Timetable Extraction")
	fmt.Fprintln(stdout, rule)
	fmt.Fprintln(stdout)

	if err := os.MkdirAll(*output, 0755); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if !*noCleanup {
		deleted, err := fetch.CleanupOlderThan(*output, "*.csv", maxAge, time.Now())
		if err != nil {
			fmt.Fprintf(stderr, "Warning: cleanup failed: %v\n", err)
		} else if deleted > 0 {
			fmt.Fprintf(stdout, "Cleaned up %d old file(s)\n", deleted)
		}
	}

	ex, err := pipeline.ExtractToCSV(pdfPath, *output, cfg, !*noCache)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if ex.Cached {
		fmt.Fprintf(stdout, "Already extracted: %s\n", filepath.Base(pdfPath))
	} else {
		fmt.Fprintf(stdout, "Extracted: %s\n", filepath.Base(pdfPath))
		for _, p := range ex.Paths {
			fmt.Fprintf(stdout, "  Created: %s\n", filepath.Base(p))
		}
		if len(ex.Warnings) > 0 {
			fmt.Fprintf(stderr, "Warnings: %s\n", timetable.FormatWarnings(ex.Warnings))
		}
	}

	if *markdown {
		for _, table := range ex.Tables() {
			fmt.Fprintf(stdout, "\n## %s (%d rows)\n\n%s", table.Key, table.RowCount(), table.ToMarkdown())
		}
	}

	fmt.Fprintf(stdout, "\n%d CSV file(s) ready\n", len(ex.Paths))
	return 0
}
