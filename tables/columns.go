package tables

import (
	"math"
	"sort"

	"github.com/tsawler/timetable/model"
)

// ColumnSet is the ascending list of column-center x-coordinates of one
// direction half of a section
type ColumnSet []float64

// Len returns the number of columns
func (c ColumnSet) Len() int {
	return len(c)
}

// HeaderColumns derives column centers from the rotated station captions.
// Every word whose left edge lies in xs and whose top lies inside the header
// band is rounded to the nearest multiple of cfg.HeaderPitch; the distinct
// rounded values are the centers. Returns nil when no caption is found.
func HeaderColumns(frags []model.TextFragment, xs model.Span, cfg Config) ColumnSet {
	seen := make(map[float64]bool)
	var centers ColumnSet

	for _, frag := range frags {
		x, y := frag.BBox.Left(), frag.BBox.Top()
		if !xs.Contains(x) || y < cfg.HeaderYStart || y > cfg.HeaderYEnd {
			continue
		}
		center := math.Round(x/cfg.HeaderPitch) * cfg.HeaderPitch
		if !seen[center] {
			seen[center] = true
			centers = append(centers, center)
		}
	}

	sort.Float64s(centers)
	return centers
}

// ClusterColumns clusters x-positions into columns. Distinct positions are
// walked left to right; a gap larger than minGap to the previous position
// closes the current cluster. Each cluster contributes its mean.
func ClusterColumns(xs []float64, minGap float64) ColumnSet {
	if len(xs) == 0 {
		return nil
	}

	positions := distinctSorted(xs)

	var centers ColumnSet
	cluster := []float64{positions[0]}

	for i := 1; i < len(positions); i++ {
		if positions[i]-positions[i-1] > minGap {
			centers = append(centers, mean(cluster))
			cluster = []float64{positions[i]}
		} else {
			cluster = append(cluster, positions[i])
		}
	}
	centers = append(centers, mean(cluster))

	return centers
}

// LocateColumns returns the header-based centers when there are any,
// otherwise the clustered x-positions of the fullest row.
func LocateColumns(header ColumnSet, rows []Row, minGap float64) ColumnSet {
	if len(header) > 0 {
		return header
	}
	fullest := fullestRow(rows)
	if fullest == nil {
		return nil
	}
	return ClusterColumns(fullest.Xs(), minGap)
}

// fullestRow returns the first row with the most tokens
func fullestRow(rows []Row) Row {
	var best Row
	for _, row := range rows {
		if len(row) > len(best) {
			best = row
		}
	}
	return best
}

func distinctSorted(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
