package tables

import (
	"math"
	"sort"
)

// Row is a physical line of tokens sorted by x
type Row []Token

// Xs returns the x-position of every token in the row
func (r Row) Xs() []float64 {
	xs := make([]float64, len(r))
	for i, tok := range r {
		xs[i] = tok.X
	}
	return xs
}

// GroupRows groups tokens into rows by y-proximity. Tokens are visited in
// (y, x) order; a token joins the current row while its y is within
// tolerance of the y of the token that opened the row. Rows come back in
// top-to-bottom order, which is the chronological order of the timetable.
func GroupRows(tokens []Token, tolerance float64) []Row {
	if len(tokens) == 0 {
		return nil
	}

	sorted := make([]Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows []Row
	current := Row{sorted[0]}
	refY := sorted[0].Y

	for _, tok := range sorted[1:] {
		if math.Abs(tok.Y-refY) <= tolerance {
			current = append(current, tok)
			continue
		}
		rows = append(rows, sortByX(current))
		current = Row{tok}
		refY = tok.Y
	}
	rows = append(rows, sortByX(current))

	return rows
}

// FilterRows keeps the rows holding at least minTokens tokens
func FilterRows(rows []Row, minTokens int) []Row {
	var kept []Row
	for _, row := range rows {
		if len(row) >= minTokens {
			kept = append(kept, row)
		}
	}
	return kept
}

func sortByX(row Row) Row {
	sort.SliceStable(row, func(i, j int) bool {
		return row[i].X < row[j].X
	})
	return row
}
