package timetable

import (
	"github.com/tsawler/timetable/reader"
	"github.com/tsawler/timetable/tables"
)

// ExtractOptions holds configuration for table reconstruction.
type ExtractOptions struct {
	// Page selection (1-indexed, nil means all pages)
	pages []int

	// Word assembly tolerances, nil for the reader's defaults
	readerOptions *reader.Options

	// Layout calibration
	config tables.Config

	// Registered detector name
	detector string
}

func defaultOptions() ExtractOptions {
	return ExtractOptions{
		pages:    nil,
		config:   tables.DefaultConfig(),
		detector: tables.NewScheduleDetector().Name(),
	}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := ExtractOptions{
		readerOptions: o.readerOptions,
		config:        o.config.Clone(),
		detector:      o.detector,
	}

	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}

	return newOpts
}
