package model

// Document represents a decoded PDF document
type Document struct {
	Name  string // Source name, usually the file stem
	Pages []*Page
}

// NewDocument creates a new empty document
func NewDocument(name string) *Document {
	return &Document{
		Name:  name,
		Pages: make([]*Page, 0),
	}
}

// AddPage adds a page to the document. Pages without a number are numbered
// in insertion order.
func (d *Document) AddPage(page *Page) {
	if page.Number == 0 {
		page.Number = len(d.Pages) + 1
	}
	d.Pages = append(d.Pages, page)
}

// PageCount returns the total number of pages
func (d *Document) PageCount() int {
	return len(d.Pages)
}
