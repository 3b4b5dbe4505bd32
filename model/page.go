package model

import "strings"

// TextFragment represents a positioned piece of text, usually one word
type TextFragment struct {
	Text     string
	BBox     BBox
	FontSize float64
	FontName string
}

// Page represents a single page in a PDF document
type Page struct {
	Number    int            // 1-indexed page number
	Width     float64        // Page width in document units
	Height    float64        // Page height in document units
	Rotation  int            // Rotation angle (0, 90, 180, 270)
	Fragments []TextFragment // All text fragments with positions
}

// NewPage creates a new page with given dimensions
func NewPage(width, height float64) *Page {
	return &Page{
		Width:     width,
		Height:    height,
		Fragments: make([]TextFragment, 0),
	}
}

// AddFragment appends a text fragment to the page
func (p *Page) AddFragment(frag TextFragment) {
	p.Fragments = append(p.Fragments, frag)
}

// Text returns the text of every fragment joined by single spaces, in
// fragment order.
func (p *Page) Text() string {
	var sb strings.Builder
	for i, frag := range p.Fragments {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(frag.Text)
	}
	return sb.String()
}

// Midpoint returns the horizontal center of the page.
func (p *Page) Midpoint() float64 {
	return p.Width / 2
}

// FragmentsIn returns the fragments whose left edge lies in xs and whose
// top edge lies in ys. Order is preserved.
func (p *Page) FragmentsIn(xs, ys Span) []TextFragment {
	var out []TextFragment
	for _, frag := range p.Fragments {
		if xs.Contains(frag.BBox.Left()) && ys.Contains(frag.BBox.Top()) {
			out = append(out, frag)
		}
	}
	return out
}

// IsEmpty reports whether the page has no text fragments.
func (p *Page) IsEmpty() bool {
	return len(p.Fragments) == 0
}
