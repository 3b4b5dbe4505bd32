package reader

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/timetable/model"
)

// Smallest extent given to a glyph box so zero-width glyphs still mark
// their position in the word's bounding box.
const minExtent = 0.001

// Glyph is one decoded character in top-down page coordinates
type Glyph struct {
	Text     string
	X        float64 // left edge
	Top      float64 // top edge, measured from the top of the page
	Width    float64
	FontSize float64
	Font     string
}

// Right returns the right edge
func (g Glyph) Right() float64 {
	return g.X + g.Width
}

func (g Glyph) isSpace() bool {
	return strings.TrimFunc(g.Text, unicode.IsSpace) == ""
}

// MergeGlyphs assembles glyphs into words. Glyphs are grouped into lines by
// their top edge (within opts.YTolerance of the line's first glyph), each
// line is ordered by x, and a word ends at a whitespace glyph or where the
// gap to the next glyph exceeds opts.XTolerance. Words come back line by
// line, top to bottom and left to right.
func MergeGlyphs(glyphs []Glyph, opts Options) []model.TextFragment {
	if len(glyphs) == 0 {
		return nil
	}

	var words []model.TextFragment
	for _, line := range groupLines(glyphs, opts.YTolerance) {
		words = append(words, splitWords(line, opts.XTolerance)...)
	}
	return words
}

// groupLines clusters glyphs by top edge, preserving top-to-bottom order.
func groupLines(glyphs []Glyph, tolerance float64) [][]Glyph {
	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Top < sorted[j].Top
	})

	var lines [][]Glyph
	current := []Glyph{sorted[0]}
	lineTop := sorted[0].Top

	for _, g := range sorted[1:] {
		if math.Abs(g.Top-lineTop) <= tolerance {
			current = append(current, g)
			continue
		}
		lines = append(lines, current)
		current = []Glyph{g}
		lineTop = g.Top
	}
	lines = append(lines, current)

	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].X < line[j].X
		})
	}
	return lines
}

// splitWords breaks an x-ordered line into words
func splitWords(line []Glyph, tolerance float64) []model.TextFragment {
	var words []model.TextFragment
	var current []Glyph

	flush := func() {
		if len(current) > 0 {
			words = append(words, makeWord(current))
			current = nil
		}
	}

	for _, g := range line {
		if g.isSpace() {
			flush()
			continue
		}
		if len(current) > 0 && g.X-current[len(current)-1].Right() > tolerance {
			flush()
		}
		current = append(current, g)
	}
	flush()

	return words
}

// makeWord joins glyphs into one fragment with their combined bounding box
func makeWord(glyphs []Glyph) model.TextFragment {
	var sb strings.Builder
	var box model.BBox
	size := 0.0

	for _, g := range glyphs {
		sb.WriteString(g.Text)
		box = box.Union(model.NewBBox(g.X, g.Top, math.Max(g.Width, minExtent), math.Max(g.FontSize, minExtent)))
		size = math.Max(size, g.FontSize)
	}

	return model.TextFragment{
		Text:     norm.NFC.String(sb.String()),
		BBox:     box,
		FontSize: size,
		FontName: glyphs[0].Font,
	}
}
