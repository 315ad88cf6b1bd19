// Package rooms turns wall segments into room polygons. Segments are
// snapped, slightly extended to heal near-miss junctions, and
// polygonized into the bounded faces of the wall graph; faces too small
// to be rooms or large enough to be the sheet border are discarded.
// When no face survives, the convex hull of the walls stands in as a
// single region so downstream consumers always get an area.
package rooms

import (
	"math"

	"github.com/draftscale/takeoff/internal/config"
	"github.com/draftscale/takeoff/internal/geom"
	"github.com/draftscale/takeoff/internal/monitoring"
	"github.com/draftscale/takeoff/internal/snap"
	"github.com/draftscale/takeoff/internal/units"
	"github.com/draftscale/takeoff/internal/walls"
)

// DetectedRoom is one enclosed region of the floor plan.
type DetectedRoom struct {
	Index        int            `json:"index"`
	Label        string         `json:"label,omitempty"`
	Polygon      []geom.Point2D `json:"polygon"`
	Centroid     geom.Point2D   `json:"centroid"`
	AreaPts      float64        `json:"area_pts"`
	PerimeterPts float64        `json:"perimeter_pts"`
	// Real-world values, set only when the drawing scale is known.
	AreaSF      *float64 `json:"area_sf,omitempty"`
	PerimeterLF *float64 `json:"perimeter_lf,omitempty"`
}

// Analysis is the result of room detection on one sheet.
type Analysis struct {
	Rooms []DetectedRoom `json:"rooms"`
	// PolygonizeSuccess is false when the wall graph enclosed nothing
	// and Rooms holds the convex-hull fallback region.
	PolygonizeSuccess bool           `json:"polygonize_success"`
	OuterBoundary     []geom.Point2D `json:"outer_boundary,omitempty"`
	TotalAreaPts      float64        `json:"total_area_pts"`
}

// Detector polygonizes wall segments into rooms.
type Detector struct {
	cfg     *config.TuningConfig
	snapper *snap.Snapper
	labeler *Labeler
}

// NewDetector returns a Detector using cfg thresholds.
func NewDetector(cfg *config.TuningConfig) *Detector {
	if cfg == nil {
		cfg = &config.TuningConfig{}
	}
	return &Detector{
		cfg:     cfg,
		snapper: snap.NewSnapper(cfg),
		labeler: NewLabeler(cfg),
	}
}

// Detect finds the rooms bounded by segs. texts supplies the room-name
// labels; scaleFactor, when non-nil, fills the real-world fields;
// pageAreaPts gates the sheet-border filter (0 disables it).
func (d *Detector) Detect(segs []walls.Segment, texts []geom.TextBlock, scaleFactor *float64, pageAreaPts float64) Analysis {
	snapped := d.snapper.Endpoints(segs)
	if d.cfg.GetUseCenterlines() {
		snapped = d.Centerlines(snapped)
	}

	ext := d.cfg.GetSegmentExtensionPts()
	pairs := make([][2]geom.Point2D, 0, len(snapped))
	for _, s := range snapped {
		pairs = append(pairs, extendSegment(s.Start, s.End, ext))
	}

	polys := polygonize(pairs)
	polys = d.filterPolys(polys, pageAreaPts)

	a := Analysis{PolygonizeSuccess: len(polys) > 0}
	if len(polys) == 0 {
		polys = hullFallback(snapped, d.cfg.GetMinRoomAreaPts())
		if len(polys) == 0 {
			monitoring.Logf("rooms: no enclosed regions and no usable hull")
			return a
		}
		monitoring.Logf("rooms: polygonization enclosed nothing, using convex hull fallback")
	}

	for i, poly := range polys {
		room := DetectedRoom{
			Index:        i,
			Polygon:      poly,
			Centroid:     geom.PolygonCentroid(poly),
			AreaPts:      geom.PolygonArea(poly),
			PerimeterPts: geom.PolygonPerimeter(poly),
		}
		if scaleFactor != nil && *scaleFactor > 0 {
			sf := units.PtsToRealSF(room.AreaPts, *scaleFactor)
			lf := units.PtsToRealLF(room.PerimeterPts, *scaleFactor)
			room.AreaSF = &sf
			room.PerimeterLF = &lf
		}
		a.Rooms = append(a.Rooms, room)
		a.TotalAreaPts += room.AreaPts
	}

	d.labeler.Assign(a.Rooms, texts)
	a.OuterBoundary = outerBoundaryOf(a.Rooms)
	return a
}

func (d *Detector) filterPolys(polys [][]geom.Point2D, pageAreaPts float64) [][]geom.Point2D {
	minArea := d.cfg.GetMinRoomAreaPts()
	maxArea := math.Inf(1)
	if pageAreaPts > 0 {
		maxArea = d.cfg.GetMaxPageAreaFraction() * pageAreaPts
	}
	kept := polys[:0:0]
	for _, p := range polys {
		area := geom.PolygonArea(p)
		if area < minArea || area > maxArea {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func extendSegment(a, b geom.Point2D, ext float64) [2]geom.Point2D {
	length := a.Distance(b)
	if ext <= 0 || length == 0 {
		return [2]geom.Point2D{a, b}
	}
	ux := (b.X - a.X) / length
	uy := (b.Y - a.Y) / length
	return [2]geom.Point2D{
		{X: a.X - ux*ext, Y: a.Y - uy*ext},
		{X: b.X + ux*ext, Y: b.Y + uy*ext},
	}
}

func hullFallback(segs []walls.Segment, minArea float64) [][]geom.Point2D {
	pts := make([]geom.Point2D, 0, len(segs)*2)
	for _, s := range segs {
		pts = append(pts, s.Start, s.End)
	}
	hull := geom.ConvexHull(pts)
	if hull == nil || geom.PolygonArea(hull) < minArea {
		return nil
	}
	return [][]geom.Point2D{hull}
}

func outerBoundaryOf(rooms []DetectedRoom) []geom.Point2D {
	var pts []geom.Point2D
	for _, r := range rooms {
		pts = append(pts, r.Polygon...)
	}
	return geom.ConvexHull(pts)
}
