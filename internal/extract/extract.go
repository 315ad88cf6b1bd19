// Package extract converts the raw per-page output of a PDF source
// collaborator into the pipeline's DrawingData. The core never opens or
// parses PDF containers; it consumes the already-decoded path items and
// text blocks the collaborator supplies (and, for fixtures and the CLI,
// a JSON encoding of the same shape).
package extract

import (
	"errors"
	"fmt"

	"github.com/draftscale/takeoff/internal/geom"
)

// ErrZeroAreaRegion reports a caller-supplied filter region with no
// area. This is an API misuse, not document messiness, so it surfaces
// as an error instead of a degraded result.
var ErrZeroAreaRegion = errors.New("filter region has zero area")

// Raw item kinds as delivered by the PDF source collaborator.
const (
	ItemLine  = "l"  // two points
	ItemRect  = "re" // axis-aligned rectangle
	ItemCurve = "c"  // cubic Bezier, four control points
	ItemQuad  = "qu" // four-corner polygon
)

// RawItem is one path item inside a drawing operation.
type RawItem struct {
	Kind   string             `json:"kind"`
	Points []geom.Point2D     `json:"points,omitempty"`
	Rect   *geom.BoundingRect `json:"rect,omitempty"`
}

// RawDrawing is one drawing operation: shared stroke/fill state plus
// its path items.
type RawDrawing struct {
	StrokeColor *geom.Color `json:"stroke_color,omitempty"`
	FillColor   *geom.Color `json:"fill_color,omitempty"`
	LineWidth   float64     `json:"line_width"`
	Items       []RawItem   `json:"items"`
}

// Page is the per-page shape supplied by the PDF source collaborator.
type Page struct {
	Label         string           `json:"label,omitempty"`
	PageWidthPts  float64          `json:"page_width_pts"`
	PageHeightPts float64          `json:"page_height_pts"`
	Drawings      []RawDrawing     `json:"drawings"`
	TextBlocks    []geom.TextBlock `json:"text_blocks"`
}

// Stats summarises extracted drawing data. Pure reduction, no side
// effects.
type Stats struct {
	PathCount          int                `json:"path_count"`
	LineCount          int                `json:"line_count"`
	RectCount          int                `json:"rect_count"`
	CurveCount         int                `json:"curve_count"`
	PolylineCount      int                `json:"polyline_count"`
	TotalLineLengthPts float64            `json:"total_line_length_pts"`
	BoundingBox        *geom.BoundingRect `json:"bounding_box,omitempty"`
}

// Extractor converts raw page drawings to DrawingData.
type Extractor struct{}

// NewExtractor returns an Extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Extract converts every drawing on the page into vector paths. Pages
// with zero vector content (text-only or rasterized sheets) yield an
// empty path set; Extract never fails.
func (e *Extractor) Extract(page Page) geom.DrawingData {
	var paths []geom.VectorPath
	for _, d := range page.Drawings {
		paths = append(paths, convertDrawing(d)...)
	}
	return geom.DrawingData{
		Paths:         paths,
		PageWidthPts:  page.PageWidthPts,
		PageHeightPts: page.PageHeightPts,
	}
}

// FilterByRegion returns only paths intersecting region, keeping page
// dimensions. Used to exclude title-block and border content before
// measurement.
func (e *Extractor) FilterByRegion(data geom.DrawingData, region geom.BoundingRect) (geom.DrawingData, error) {
	if region.Width <= 0 || region.Height <= 0 {
		return geom.DrawingData{}, fmt.Errorf("%w: %+v", ErrZeroAreaRegion, region)
	}
	var filtered []geom.VectorPath
	for _, p := range data.Paths {
		if p.BoundingRect.Intersects(region) {
			filtered = append(filtered, p)
		}
	}
	return geom.DrawingData{
		Paths:         filtered,
		PageWidthPts:  data.PageWidthPts,
		PageHeightPts: data.PageHeightPts,
	}, nil
}

// GetStats computes summary statistics for data.
func (e *Extractor) GetStats(data geom.DrawingData) Stats {
	s := Stats{PathCount: len(data.Paths)}
	for _, p := range data.Paths {
		switch p.PathType {
		case geom.PathLine:
			s.LineCount++
			if len(p.Points) == 2 {
				s.TotalLineLengthPts += p.Points[0].Distance(p.Points[1])
			}
		case geom.PathRect:
			s.RectCount++
		case geom.PathCurve:
			s.CurveCount++
		case geom.PathPolyline:
			s.PolylineCount++
		}
	}
	if len(data.Paths) > 0 {
		var all []geom.Point2D
		for _, p := range data.Paths {
			r := p.BoundingRect
			all = append(all,
				geom.Point2D{X: r.X, Y: r.Y},
				geom.Point2D{X: r.X + r.Width, Y: r.Y + r.Height})
		}
		bbox := geom.BBoxOf(all)
		s.BoundingBox = &bbox
	}
	return s
}

func convertDrawing(d RawDrawing) []geom.VectorPath {
	var paths []geom.VectorPath
	for _, item := range d.Items {
		switch item.Kind {
		case ItemLine:
			if len(item.Points) != 2 {
				continue
			}
			paths = append(paths, geom.VectorPath{
				PathType:     geom.PathLine,
				Points:       item.Points,
				StrokeColor:  d.StrokeColor,
				FillColor:    d.FillColor,
				LineWidth:    d.LineWidth,
				BoundingRect: geom.BBoxOf(item.Points),
			})
		case ItemRect:
			if item.Rect == nil {
				continue
			}
			r := *item.Rect
			corners := []geom.Point2D{
				{X: r.X, Y: r.Y},
				{X: r.X + r.Width, Y: r.Y},
				{X: r.X + r.Width, Y: r.Y + r.Height},
				{X: r.X, Y: r.Y + r.Height},
			}
			paths = append(paths, geom.VectorPath{
				PathType:     geom.PathRect,
				Points:       corners,
				StrokeColor:  d.StrokeColor,
				FillColor:    d.FillColor,
				LineWidth:    d.LineWidth,
				BoundingRect: r,
			})
		case ItemCurve:
			if len(item.Points) != 4 {
				continue
			}
			paths = append(paths, geom.VectorPath{
				PathType:     geom.PathCurve,
				Points:       item.Points,
				StrokeColor:  d.StrokeColor,
				FillColor:    d.FillColor,
				LineWidth:    d.LineWidth,
				BoundingRect: geom.BBoxOf(item.Points),
			})
		case ItemQuad:
			if len(item.Points) != 4 {
				continue
			}
			paths = append(paths, geom.VectorPath{
				PathType:     geom.PathPolyline,
				Points:       item.Points,
				StrokeColor:  d.StrokeColor,
				FillColor:    d.FillColor,
				LineWidth:    d.LineWidth,
				BoundingRect: geom.BBoxOf(item.Points),
			})
		}
	}
	return paths
}
