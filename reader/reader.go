package reader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/tsawler/timetable/model"
)

var (
	// ErrNoPages is returned when a document has no decodable page.
	ErrNoPages = errors.New("no decodable pages")

	// ErrMalformed is returned when the decoder rejects the file structure.
	ErrMalformed = errors.New("malformed PDF")
)

// US Letter, used when a page has no MediaBox
const (
	defaultWidth  = 612
	defaultHeight = 792
)

// Options controls word assembly
type Options struct {
	// Maximum gap between a glyph and the previous glyph's right edge for
	// both to belong to the same word
	XTolerance float64

	// Maximum difference between glyph tops for both to sit on one line
	YTolerance float64
}

// DefaultOptions returns tolerances of 2 units on both axes
func DefaultOptions() Options {
	return Options{XTolerance: 2, YTolerance: 2}
}

// Reader represents a PDF file reader
type Reader struct {
	file io.Closer
	pdf  *pdf.Reader
	name string
}

// Open opens a PDF file and returns a Reader. The document name is the
// file name without its extension.
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", filename, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open PDF %s: %w", filename, err)
	}

	r, err := NewReader(f, info.Size(), strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open PDF %s: %w", filename, err)
	}
	r.file = f
	return r, nil
}

// NewReader creates a reader over PDF bytes. The caller keeps ownership of ra.
func NewReader(ra io.ReaderAt, size int64, name string) (r *Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r = nil
			err = fmt.Errorf("%w: %v", ErrMalformed, rec)
		}
	}()

	p, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}
	return &Reader{pdf: p, name: name}, nil
}

// Close closes the underlying file when the reader opened it
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Name returns the document name
func (r *Reader) Name() string {
	return r.name
}

// PageCount returns the number of pages in the page tree
func (r *Reader) PageCount() (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			n = 0
			err = fmt.Errorf("%s: %w: %v", r.name, ErrMalformed, rec)
		}
	}()
	return r.pdf.NumPage(), nil
}

// Page decodes one page (1-indexed) into positioned words using the
// default tolerances
func (r *Reader) Page(n int) (*model.Page, error) {
	return r.PageWithOptions(n, DefaultOptions())
}

// PageWithOptions decodes one page with the given word assembly tolerances
func (r *Reader) PageWithOptions(n int, opts Options) (page *model.Page, err error) {
	// The decoder panics on malformed objects and content streams, and on
	// reads after Close.
	defer func() {
		if rec := recover(); rec != nil {
			page = nil
			err = fmt.Errorf("page %d: %w: %v", n, ErrMalformed, rec)
		}
	}()

	if count := r.pdf.NumPage(); n < 1 || n > count {
		return nil, fmt.Errorf("page %d out of range [1, %d]", n, count)
	}

	p := r.pdf.Page(n)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d: missing page object", n)
	}

	box := mediaBox(p.V)
	page = model.NewPage(box.Width, box.Height)
	page.Number = n
	page.Rotation = int(inherited(p.V, "Rotate").Int64())

	if p.V.Key("Contents").Kind() == pdf.Null {
		return page, nil
	}

	content := p.Content()
	glyphs := make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, fromPDF(t, box))
	}
	page.Fragments = MergeGlyphs(glyphs, opts)

	return page, nil
}

// Document decodes every page. Pages that fail to decode are skipped;
// ErrNoPages is returned when none decode.
func (r *Reader) Document() (*model.Document, error) {
	count, err := r.PageCount()
	if err != nil {
		return nil, err
	}

	doc := model.NewDocument(r.name)
	for i := 1; i <= count; i++ {
		page, err := r.Page(i)
		if err != nil {
			continue
		}
		doc.AddPage(page)
	}
	if doc.PageCount() == 0 {
		return nil, fmt.Errorf("%s: %w", r.name, ErrNoPages)
	}
	return doc, nil
}

// box is a MediaBox: lower-left origin plus size in user space
type box struct {
	X, Y          float64
	Width, Height float64
}

// mediaBox reads the page's MediaBox, following the Parent chain.
func mediaBox(v pdf.Value) box {
	mb := inherited(v, "MediaBox")
	if mb.Kind() != pdf.Array || mb.Len() < 4 {
		return box{Width: defaultWidth, Height: defaultHeight}
	}

	x0, y0 := mb.Index(0).Float64(), mb.Index(1).Float64()
	x1, y1 := mb.Index(2).Float64(), mb.Index(3).Float64()
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	if x1-x0 <= 0 || y1-y0 <= 0 {
		return box{Width: defaultWidth, Height: defaultHeight}
	}
	return box{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// inherited looks a key up on the page and then on its ancestors.
func inherited(v pdf.Value, key string) pdf.Value {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

// fromPDF converts a glyph from bottom-up user space to top-down page space.
func fromPDF(t pdf.Text, b box) Glyph {
	return Glyph{
		Text:     t.S,
		X:        t.X - b.X,
		Top:      b.Height - (t.Y - b.Y) - t.FontSize,
		Width:    t.W,
		FontSize: t.FontSize,
		Font:     t.Font,
	}
}
