// Package reader decodes the text layer of a PDF into positioned words.
//
// Decoding is delegated to github.com/ledongthuc/pdf. This package turns
// its glyph stream into [model.TextFragment] words in top-down page
// coordinates, the input the tables package consumes.
//
// # Opening PDF Files
//
// Use [Open] to open a PDF file for reading:
//
//	r, err := reader.Open("PATCO_Timetable.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
// Or use [NewReader] with any io.ReaderAt.
//
// # Page Access
//
// Access pages by number (1-based):
//
//	page, err := r.Page(1)
//	page, err = r.PageWithOptions(1, reader.Options{XTolerance: 3, YTolerance: 2})
//	doc, err := r.Document() // every decodable page
//
// The decoder reports malformed files by panicking; every method here
// recovers and returns an error wrapping [ErrMalformed] instead.
//
// # Word Assembly
//
// Glyphs are grouped into lines by their top edge and split into words at
// whitespace glyphs or horizontal gaps wider than [Options].XTolerance.
// [MergeGlyphs] is exported so the assembly can be exercised without a PDF.
//
// Only embedded text is read; scanned pages yield no words.
package reader
