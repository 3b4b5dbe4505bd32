// Package pdftest writes small single-font PDF files for tests. Text is
// placed by its left edge and its top edge measured from the top of the
// page, matching the coordinates the reader package produces.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FontSize is the size every string is drawn at.
const FontSize = 8

// GlyphWidth is the advance of every character at FontSize.
const GlyphWidth = FontSize * 500.0 / 1000.0

// Text is one string drawn on a page
type Text struct {
	X   float64
	Top float64
	S   string
}

// Page is the content of one page
type Page []Text

// Row places strings at the given x positions on one line
func Row(top float64, xs []float64, texts ...string) Page {
	page := make(Page, len(xs))
	for i, x := range xs {
		page[i] = Text{X: x, Top: top, S: texts[i]}
	}
	return page
}

// Merge concatenates pages into one
func Merge(parts ...Page) Page {
	var out Page
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Build renders pages of the given size into a PDF file image.
func Build(width, height float64, pages ...Page) []byte {
	var objects []string

	// 1: catalog, 2: page tree, 3: font
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %s %s] >>",
		strings.Join(kids, " "), len(pages), num(width), num(height)))

	widths := strings.TrimSpace(strings.Repeat("500 ", 256-32))
	objects = append(objects, fmt.Sprintf(
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 255 /Widths [%s] >>",
		widths))

	for i, page := range pages {
		content := contentStream(page, height)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// Write builds a PDF into dir/name and returns its path.
func Write(t testing.TB, dir, name string, width, height float64, pages ...Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, Build(width, height, pages...), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func contentStream(page Page, height float64) string {
	var sb strings.Builder
	for _, t := range page {
		// baseline sits one font size below the top edge
		y := height - t.Top - FontSize
		fmt.Fprintf(&sb, "BT /F1 %d Tf 1 0 0 1 %s %s Tm (%s) Tj ET\n", FontSize, num(t.X), num(y), escape(t.S))
	}
	return sb.String()
}

// escape encodes s as a WinAnsi literal string body.
func escape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r < 128:
			sb.WriteRune(r)
		case r < 256:
			// Latin-1 and WinAnsi agree above 0xA0
			fmt.Fprintf(&sb, "\\%03o", r)
		default:
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

func num(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
