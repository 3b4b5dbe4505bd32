package timetable

import (
	"fmt"
	"slices"

	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/reader"
	"github.com/tsawler/timetable/tables"
)

// Extractor reconstructs the timetables of one PDF. Configuration methods
// return a modified copy and leave the receiver untouched.
type Extractor struct {
	filename string
	reader   *reader.Reader
	owned    bool // reader was opened here and is closed here
	opened   bool

	options ExtractOptions

	// first configuration error, returned by the terminal operation
	err error
}

// clone copies the extractor. A reader supplied by the caller is shared; a
// file the receiver opened is not, so the copy reopens it and closing one
// never invalidates the other.
func (e *Extractor) clone() *Extractor {
	next := &Extractor{
		filename: e.filename,
		options:  e.options.clone(),
		err:      e.err,
	}
	if !e.owned {
		next.reader = e.reader
		next.opened = e.opened
	}
	return next
}

// open opens the file on first use.
func (e *Extractor) open() error {
	if e.opened {
		return nil
	}
	if e.filename == "" {
		return ErrNoFilename
	}

	r, err := reader.Open(e.filename)
	if err != nil {
		return err
	}
	e.reader = r
	e.owned = true
	e.opened = true
	return nil
}

// Close closes a reader opened by the extractor. A reader supplied through
// FromReader is left open. Repeated calls return nil.
func (e *Extractor) Close() error {
	if e.owned && e.reader != nil {
		err := e.reader.Close()
		e.reader = nil
		e.owned = false
		e.opened = false
		return err
	}
	return nil
}

// Pages restricts extraction to the given 1-indexed pages, adding to any
// pages selected earlier:
//
//	result, _, err := timetable.Open("special.pdf").Pages(1, 3).Tables()
func (e *Extractor) Pages(pages ...int) *Extractor {
	next := e.clone()
	next.options.pages = append(next.options.pages, pages...)
	return next
}

// PageRange adds pages start through end.
func (e *Extractor) PageRange(start, end int) *Extractor {
	next := e.clone()
	for i := start; i <= end; i++ {
		next.options.pages = append(next.options.pages, i)
	}
	return next
}

// WithConfig replaces the layout calibration. An invalid configuration is
// reported by the terminal operation:
//
//	cfg := tables.DefaultConfig()
//	cfg.HeaderPitch = 40
//	result, _, err := timetable.Open("timetable.pdf").WithConfig(cfg).Tables()
func (e *Extractor) WithConfig(config tables.Config) *Extractor {
	next := e.clone()
	if err := config.Validate(); err != nil {
		next.err = fmt.Errorf("invalid config: %w", err)
		return next
	}
	next.options.config = config.Clone()
	return next
}

// WithReaderOptions replaces the word assembly tolerances.
func (e *Extractor) WithReaderOptions(opts reader.Options) *Extractor {
	next := e.clone()
	next.options.readerOptions = &opts
	return next
}

// WithDetector selects a detector from the tables registry by name.
func (e *Extractor) WithDetector(name string) *Extractor {
	next := e.clone()
	if _, ok := tables.NewDetector(name); !ok {
		next.err = fmt.Errorf("unknown detector %q (registered: %v)", name, tables.ListDetectors())
		return next
	}
	next.options.detector = name
	return next
}

// PageCount reports the number of pages. Unlike Tables and Document it
// leaves the file open.
func (e *Extractor) PageCount() (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	if err := e.open(); err != nil {
		return 0, err
	}
	return e.reader.PageCount()
}

// Document decodes the selected pages into positioned words.
// Pages that fail to decode are reported as warnings and skipped.
// The file is closed on return.
func (e *Extractor) Document() (*model.Document, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}
	if err := e.open(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	return e.collectPages()
}

// Tables reconstructs every schedule table of the selected pages, keyed
// by "<section>_<direction>". Problems with individual pages or sections
// are reported as warnings; the returned error is reserved for failures
// that prevent reading the document at all. The file is closed on return.
//
//	result, _, err := timetable.Open("timetable.pdf").Tables()
//	weekday := result["weekday_westbound"]
func (e *Extractor) Tables() (tables.Result, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}
	if err := e.open(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	doc, warnings, err := e.collectPages()
	if err != nil {
		return nil, warnings, err
	}

	detector, err := e.detector()
	if err != nil {
		return nil, warnings, err
	}

	result, tableWarnings := tables.NewAssemblerWithDetector(detector, e.options.config.DuplicateKeys).Assemble(doc.Pages)
	return result, append(warnings, tableWarnings...), nil
}

// detector builds the selected detector with the extractor's config. Each
// call gets its own detector so concurrent extractions share no state.
func (e *Extractor) detector() (tables.Detector, error) {
	d, ok := tables.NewDetector(e.options.detector)
	if !ok {
		return nil, fmt.Errorf("unknown detector %q", e.options.detector)
	}
	if err := d.Configure(e.options.config); err != nil {
		return nil, fmt.Errorf("configure detector %s: %w", d.Name(), err)
	}
	return d, nil
}

// collectPages decodes the requested pages in ascending order.
func (e *Extractor) collectPages() (*model.Document, []Warning, error) {
	pageNums, err := e.resolvePages()
	if err != nil {
		return nil, nil, err
	}

	doc := model.NewDocument(e.reader.Name())
	var warnings []Warning
	for _, n := range pageNums {
		page, err := e.page(n)
		if err != nil {
			warnings = append(warnings, Warning{
				Kind:    tables.WarningEmptyPage,
				Page:    n,
				Message: fmt.Sprintf("could not decode page: %v", err),
			})
			continue
		}
		doc.AddPage(page)
	}

	return doc, warnings, nil
}

// page decodes page n with the selected tolerances, or with the reader's
// defaults when none were selected.
func (e *Extractor) page(n int) (*model.Page, error) {
	if opts := e.options.readerOptions; opts != nil {
		return e.reader.PageWithOptions(n, *opts)
	}
	return e.reader.Page(n)
}

// resolvePages returns the selected pages sorted and without repeats, or
// every page when none were selected.
func (e *Extractor) resolvePages() ([]int, error) {
	count, err := e.reader.PageCount()
	if err != nil {
		return nil, err
	}

	selected := e.options.pages
	if len(selected) == 0 {
		selected = make([]int, count)
		for i := range selected {
			selected[i] = i + 1
		}
	}

	pages := make([]int, 0, len(selected))
	for _, n := range selected {
		if n < 1 || n > count {
			return nil, fmt.Errorf("page %d out of range (1-%d)", n, count)
		}
		pages = append(pages, n)
	}
	slices.Sort(pages)
	return slices.Compact(pages), nil
}
