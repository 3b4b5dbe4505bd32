package model

import "math"

// BBox represents a bounding box (rectangle) in top-down page coordinates
type BBox struct {
	X      float64 // Left
	Y      float64 // Top, measured from the top of the page
	Width  float64
	Height float64
}

// NewBBox creates a bounding box from coordinates
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge X coordinate
func (b BBox) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate
func (b BBox) Right() float64 {
	return b.X + b.Width
}

// Top returns the top edge Y coordinate
func (b BBox) Top() float64 {
	return b.Y
}

// Bottom returns the bottom edge Y coordinate
func (b BBox) Bottom() float64 {
	return b.Y + b.Height
}

// Union returns the smallest bounding box containing both boxes. An empty
// box contributes nothing.
func (b BBox) Union(other BBox) BBox {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}

	x1 := math.Min(b.Left(), other.Left())
	y1 := math.Min(b.Top(), other.Top())
	x2 := math.Max(b.Right(), other.Right())
	y2 := math.Max(b.Bottom(), other.Bottom())

	return BBox{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// IsEmpty checks if the bounding box has zero area
func (b BBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Span is a half-open interval [Start, End) along one axis.
type Span struct {
	Start float64
	End   float64
}

// Contains reports whether v lies in [Start, End).
func (s Span) Contains(v float64) bool {
	return v >= s.Start && v < s.End
}

// Length returns End - Start, or 0 for an inverted span.
func (s Span) Length() float64 {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}
