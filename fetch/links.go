// Package fetch discovers timetable PDFs on the PATCO schedules page,
// downloads them into a local cache and tracks the current standard
// timetable.
package fetch

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// Kind tells standard timetables from special schedules
type Kind string

const (
	KindStandard Kind = "standard"
	KindSpecial  Kind = "special"
)

// Link is a PDF referenced by the schedules page
type Link struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Name     string `json:"name"`
	Kind     Kind   `json:"type"`
}

// ParseLinks extracts the PDF links of a schedules page in document order.
// A link under an h2 containing "Timetable" in the same table cell is a
// standard timetable, one under "Special Schedule" is special. Links outside
// such a heading are standard when their href or text mentions "timetable".
// Relative hrefs are resolved against base; repeated URLs are dropped.
func ParseLinks(r io.Reader, base *url.URL) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	p := &linkParser{base: base, seen: make(map[string]bool)}
	p.walk(doc, "")
	return p.links, nil
}

type linkParser struct {
	base  *url.URL
	seen  map[string]bool
	links []Link

	cellDepth int
}

// walk visits n in document order and returns the heading in effect after
// it. heading is the kind set by the last h2 seen inside the enclosing td,
// empty when there is none.
func (p *linkParser) walk(n *html.Node, heading Kind) Kind {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "td":
			// a heading covers the rest of its cell, nested cells included
			p.cellDepth++
			inner := heading
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				inner = p.walk(c, inner)
			}
			p.cellDepth--
			return heading
		case "h2":
			if p.cellDepth == 0 {
				return heading
			}
			if kind := headingKind(getTextContent(n)); kind != "" {
				return kind
			}
			return heading
		case "a":
			p.addLink(n, heading)
			return heading
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		heading = p.walk(c, heading)
	}
	return heading
}

func (p *linkParser) addLink(a *html.Node, heading Kind) {
	href := strings.TrimSpace(getAttr(a, "href"))
	if href == "" || !strings.Contains(strings.ToLower(href), ".pdf") {
		return
	}

	ref, err := url.Parse(href)
	if err != nil {
		return
	}
	full := ref
	if p.base != nil {
		full = p.base.ResolveReference(ref)
	}
	if p.seen[full.String()] {
		return
	}
	p.seen[full.String()] = true

	text := getTextContent(a)
	filename := path.Base(full.Path)

	kind := heading
	if kind == "" {
		kind = KindSpecial
		if strings.Contains(strings.ToLower(href), "timetable") || strings.Contains(strings.ToLower(text), "timetable") {
			kind = KindStandard
		}
	}

	name := text
	if name == "" {
		name = filename
	}

	p.links = append(p.links, Link{URL: full.String(), Filename: filename, Name: name, Kind: kind})
}

func headingKind(text string) Kind {
	switch {
	case strings.Contains(text, "Timetable"):
		return KindStandard
	case strings.Contains(text, "Special Schedule"):
		return KindSpecial
	default:
		return ""
	}
}

// getTextContent returns the whitespace-collapsed text of n
func getTextContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
