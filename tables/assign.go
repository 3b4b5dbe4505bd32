package tables

import "math"

// InferSuffix returns the suffix of the first suffixed time in the row, or
// fallback when the row has none. Entries printed on one row share a period
// of the day.
func InferSuffix(row Row, fallback string) string {
	for _, tok := range row {
		if s := tok.Suffix(); s != "" {
			return s
		}
	}
	return fallback
}

// AssignColumns maps a row onto the column set. Tokens are taken in
// ascending x order and each claims the nearest column not yet claimed, so
// no two tokens share a column. Closed markers and unclaimed columns produce
// empty cells; bare times get the row's inferred suffix. Tokens left over
// once every column is claimed are dropped.
func AssignColumns(row Row, columns ColumnSet, fallbackSuffix string) []string {
	cells := make([]string, len(columns))
	if len(row) == 0 || len(columns) == 0 {
		return cells
	}

	suffix := InferSuffix(row, fallbackSuffix)
	used := make([]bool, len(columns))

	for _, tok := range sortByX(append(Row(nil), row...)) {
		best := -1
		bestDist := math.Inf(1)
		for i, center := range columns {
			if used[i] {
				continue
			}
			if d := math.Abs(tok.X - center); d < bestDist {
				best = i
				bestDist = d
			}
		}
		if best < 0 {
			break
		}

		used[best] = true
		if tok.Kind == TokenTime {
			text := tok.Text
			if !tok.SuffixKnown {
				text += suffix
			}
			cells[best] = text
		}
	}

	return cells
}
