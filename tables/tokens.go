package tables

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/timetable/model"
)

// TokenKind distinguishes time entries from closed-station markers
type TokenKind int

const (
	// TokenTime is a printed departure time.
	TokenTime TokenKind = iota
	// TokenClosed marks a station with no service for the entry.
	TokenClosed
)

// String returns the kind name
func (k TokenKind) String() string {
	if k == TokenClosed {
		return "closed"
	}
	return "time"
}

// Token is a classified word of a timetable body
type Token struct {
	Text        string // printed time; empty for closed markers
	X           float64
	Y           float64
	Kind        TokenKind
	SuffixKnown bool // whether Text ends in an A/P suffix
}

// Suffix returns "A" or "P" for a suffixed time, otherwise "".
func (t Token) Suffix() string {
	if t.Kind != TokenTime || !t.SuffixKnown || t.Text == "" {
		return ""
	}
	return t.Text[len(t.Text)-1:]
}

var (
	suffixedTime = regexp.MustCompile(`^\d{1,2}:\d{2}[AP]$`)
	bareTime     = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

// ClassifyToken labels one word. The second result is false for words that
// are neither a time nor a closed marker.
func ClassifyToken(frag model.TextFragment, closedMarkers []string) (Token, bool) {
	text := norm.NFC.String(strings.TrimSpace(frag.Text))
	tok := Token{X: frag.BBox.Left(), Y: frag.BBox.Top()}

	switch {
	case suffixedTime.MatchString(text):
		tok.Text = text
		tok.Kind = TokenTime
		tok.SuffixKnown = true
	case bareTime.MatchString(text):
		tok.Text = text
		tok.Kind = TokenTime
	case isClosedMarker(text, closedMarkers):
		tok.Kind = TokenClosed
	default:
		return Token{}, false
	}

	return tok, true
}

// ClassifyTokens labels every word and drops the ones that are not part of
// a timetable body. Input order is preserved.
func ClassifyTokens(frags []model.TextFragment, closedMarkers []string) []Token {
	tokens := make([]Token, 0, len(frags))
	for _, frag := range frags {
		if tok, ok := ClassifyToken(frag, closedMarkers); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func isClosedMarker(text string, markers []string) bool {
	if text == "" {
		return false
	}
	for _, m := range markers {
		if text == norm.NFC.String(m) {
			return true
		}
	}
	return false
}
