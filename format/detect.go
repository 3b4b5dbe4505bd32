// Package format identifies downloaded content by its leading bytes.
package format

import (
	"bytes"
)

// Format is a content type a download can turn out to be
type Format int

const (
	// Unknown indicates unrecognized content.
	Unknown Format = iota
	// PDF indicates a PDF document.
	PDF
	// HTML indicates an HTML page, typically an error or redirect page
	// served in place of a document.
	HTML
)

// String returns the format name
func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	case HTML:
		return "HTML"
	default:
		return "Unknown"
	}
}

var pdfMagic = []byte("%PDF")

// DetectFromMagic determines the format from the leading bytes of data.
func DetectFromMagic(data []byte) Format {
	if bytes.HasPrefix(data, pdfMagic) {
		return PDF
	}
	if detectHTMLMagic(data) {
		return HTML
	}
	return Unknown
}

// detectHTMLMagic checks if the data looks like HTML content
func detectHTMLMagic(data []byte) bool {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) > 512 {
		data = data[:512]
	}
	upper := bytes.ToUpper(data)

	switch {
	case bytes.HasPrefix(upper, []byte("<!DOCTYPE HTML")), bytes.HasPrefix(upper, []byte("<HTML")):
		return true
	case bytes.HasPrefix(upper, []byte("<?XML")):
		// XHTML
		return bytes.Contains(upper, []byte("<HTML"))
	}
	return false
}
