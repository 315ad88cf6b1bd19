// Package geom holds the value types shared by every stage of the
// measurement pipeline, plus the small computational-geometry kernel
// (polygon area/perimeter/centroid, convex hull, point-in-polygon,
// segment intersection) the detectors are built on.
//
// All types are plain values constructed once per page analysis. Stages
// never mutate an upstream result; rooms and other entities are referred
// to by stable integer index rather than by pointer so results stay
// serializable and cycle-free.
package geom

import "math"

// PointsPerInch is the PDF user-space resolution (72 pt = 1 paper inch).
const PointsPerInch = 72.0

// Point2D is a point in PDF coordinate space (units: points).
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to q.
func (p Point2D) Distance(q Point2D) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Color is an RGB stroke or fill colour with components in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Sum returns R+G+B, used by the wall detector's dark-colour check.
func (c Color) Sum() float64 { return c.R + c.G + c.B }

// BoundingRect is an axis-aligned rectangle in PDF points.
type BoundingRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies within the rectangle (inclusive).
func (r BoundingRect) Contains(p Point2D) bool {
	return r.X <= p.X && p.X <= r.X+r.Width &&
		r.Y <= p.Y && p.Y <= r.Y+r.Height
}

// Intersects reports whether the two rectangles overlap.
func (r BoundingRect) Intersects(o BoundingRect) bool {
	return !(r.X+r.Width < o.X || o.X+o.Width < r.X ||
		r.Y+r.Height < o.Y || o.Y+o.Height < r.Y)
}

// Area returns width*height in square points.
func (r BoundingRect) Area() float64 { return r.Width * r.Height }

// PathType classifies a vector path extracted from a page.
type PathType string

const (
	PathLine     PathType = "line"
	PathRect     PathType = "rect"
	PathCurve    PathType = "curve"
	PathPolyline PathType = "polyline"
)

// VectorPath is a single vector path extracted from a drawing page.
// Produced once by extraction and never mutated.
type VectorPath struct {
	PathType     PathType     `json:"path_type"`
	Points       []Point2D    `json:"points"`
	StrokeColor  *Color       `json:"stroke_color,omitempty"`
	FillColor    *Color       `json:"fill_color,omitempty"`
	LineWidth    float64      `json:"line_width"`
	BoundingRect BoundingRect `json:"bounding_rect"`
}

// DrawingData is all vector drawing data extracted from one page.
type DrawingData struct {
	Paths         []VectorPath `json:"paths"`
	PageWidthPts  float64      `json:"page_width_pts"`
	PageHeightPts float64      `json:"page_height_pts"`
}

// PageAreaPts returns the page area in square points.
func (d DrawingData) PageAreaPts() float64 {
	return d.PageWidthPts * d.PageHeightPts
}

// PageSizeInches returns the paper size in inches.
func (d DrawingData) PageSizeInches() (w, h float64) {
	return d.PageWidthPts / PointsPerInch, d.PageHeightPts / PointsPerInch
}

// TextBlock is a block of page text with its centre position.
type TextBlock struct {
	Text         string       `json:"text"`
	Position     Point2D      `json:"position"`
	BoundingRect BoundingRect `json:"bounding_rect"`
}

// BBoxOf computes the axis-aligned bounding rectangle of points.
// An empty input yields the zero rectangle.
func BBoxOf(points []Point2D) BoundingRect {
	if len(points) == 0 {
		return BoundingRect{}
	}
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return BoundingRect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
