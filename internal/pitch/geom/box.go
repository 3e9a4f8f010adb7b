package geom

import "math"

// Box is an axis-aligned bounding box in pixel coordinates,
// stored as the top-left and bottom-right corners.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the box width. Negative for degenerate boxes.
func (b Box) Width() float64 { return b.X2 - b.X1 }

// Height returns the box height. Negative for degenerate boxes.
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Area returns the box area, or 0 for degenerate boxes.
func (b Box) Area() float64 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Center returns the box centre point.
func (b Box) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// FootPoint returns the bottom-centre of the box. For a person detection
// this approximates the contact point with the ground plane, which is what
// the homography maps onto the pitch.
func (b Box) FootPoint() (x, y float64) {
	return (b.X1 + b.X2) / 2, b.Y2
}

// Valid reports whether the box has positive width and height.
func (b Box) Valid() bool {
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// Clip constrains the box to the frame [0,width) × [0,height) and rounds
// the corners to integer pixel positions. The result may be degenerate
// (zero area) when the box lies entirely outside the frame.
func (b Box) Clip(width, height int) Box {
	return Box{
		X1: math.Max(0, math.Floor(b.X1)),
		Y1: math.Max(0, math.Floor(b.Y1)),
		X2: math.Min(float64(width), math.Ceil(b.X2)),
		Y2: math.Min(float64(height), math.Ceil(b.Y2)),
	}
}

// IoU returns the intersection-over-union of two boxes in [0, 1].
// A small epsilon in the denominator guards against zero-area pairs.
func IoU(a, b Box) float64 {
	xx1 := math.Max(a.X1, b.X1)
	yy1 := math.Max(a.Y1, b.Y1)
	xx2 := math.Min(a.X2, b.X2)
	yy2 := math.Min(a.Y2, b.Y2)

	w := math.Max(0, xx2-xx1)
	h := math.Max(0, yy2-yy1)
	inter := w * h

	return inter / (a.Area() + b.Area() - inter + 1e-6)
}

// Dist returns the Euclidean distance between two points.
func Dist(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}
