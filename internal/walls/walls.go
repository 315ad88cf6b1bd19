// Package walls finds the structural wall segments of a floor plan in
// extracted vector geometry. Walls are the long, thick, dark, axis-
// aligned strokes; everything else on a sheet (dimension ticks, hatch,
// furniture, title block) fails at least one of those filters.
package walls

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/draftscale/takeoff/internal/config"
	"github.com/draftscale/takeoff/internal/geom"
	"github.com/draftscale/takeoff/internal/monitoring"
	"github.com/draftscale/takeoff/internal/units"
)

// Orientation of a wall segment.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
	// Angled segments are kept out of wall-pair analysis; snapping may
	// still produce them when a weld tilts a segment off both axes.
	Angled Orientation = "angled"
)

// Plausible wall thickness in real inches. Converted through the
// drawing scale this bounds the parallel-pair gap; residential interior
// walls run about 4 1/2", thick exterior assemblies about 12".
const (
	thicknessMinRealIn = 4.0
	thicknessMaxRealIn = 12.0
)

// Segment is one detected wall segment.
type Segment struct {
	Start       geom.Point2D `json:"start"`
	End         geom.Point2D `json:"end"`
	Orientation Orientation  `json:"orientation"`
	LengthPts   float64      `json:"length_pts"`
	StrokePts   float64      `json:"stroke_pts"`
}

// Analysis is the output of wall detection.
type Analysis struct {
	Segments []Segment `json:"segments"`
	// ThicknessPts is the median gap of detected parallel wall pairs,
	// nil when the plan draws walls as single lines and no pairs exist.
	ThicknessPts    *float64       `json:"thickness_pts,omitempty"`
	OuterBoundary   []geom.Point2D `json:"outer_boundary,omitempty"`
	EnclosedAreaPts float64        `json:"enclosed_area_pts"`
	CandidateCount  int            `json:"candidate_count"`
	RejectedCount   int            `json:"rejected_count"`
}

// Detector filters vector paths down to wall segments.
type Detector struct {
	cfg *config.TuningConfig
}

// NewDetector returns a Detector using cfg thresholds.
func NewDetector(cfg *config.TuningConfig) *Detector {
	if cfg == nil {
		cfg = &config.TuningConfig{}
	}
	return &Detector{cfg: cfg}
}

// Detect runs the full wall filter chain on data: keep line paths that
// are thick, long, dark and axis-aligned, then drop statistical length
// outliers (sheet borders survive the other filters). scaleFactor sizes
// the wall-thickness pairing band; pass 0 when no scale is known and
// the configured point band applies. The resulting segment order is
// stable with respect to the input path order.
func (d *Detector) Detect(data geom.DrawingData, scaleFactor float64) Analysis {
	var segs []Segment
	candidates, rejected := 0, 0
	for _, p := range data.Paths {
		if p.PathType != geom.PathLine || len(p.Points) < 2 {
			continue
		}
		candidates++
		seg, ok := d.classify(p)
		if !ok {
			rejected++
			continue
		}
		segs = append(segs, seg)
	}

	kept, dropped := d.removeLengthOutliers(segs)
	rejected += dropped

	a := Analysis{
		Segments:       kept,
		CandidateCount: candidates,
		RejectedCount:  rejected,
	}
	a.ThicknessPts = d.medianPairGap(kept, scaleFactor)
	a.OuterBoundary = outerBoundary(kept)
	a.EnclosedAreaPts = math.Abs(geom.SignedArea(a.OuterBoundary))
	monitoring.Logf("walls: %d candidates, %d kept, enclosed area %.0f sq pts",
		candidates, len(kept), a.EnclosedAreaPts)
	return a
}

func (d *Detector) classify(p geom.VectorPath) (Segment, bool) {
	if p.LineWidth < d.cfg.GetMinWallWidthPts() {
		return Segment{}, false
	}
	// Missing stroke colour renders black.
	if p.StrokeColor != nil && p.StrokeColor.Sum() > d.cfg.GetMaxDarkColorSum() {
		return Segment{}, false
	}
	start, end := p.Points[0], p.Points[len(p.Points)-1]
	length := start.Distance(end)
	if length < d.cfg.GetMinWallLengthPts() {
		return Segment{}, false
	}
	orient, ok := classifyOrientation(start, end, d.cfg.GetAngleToleranceDeg())
	if !ok {
		return Segment{}, false
	}
	return Segment{
		Start:       start,
		End:         end,
		Orientation: orient,
		LengthPts:   length,
		StrokePts:   p.LineWidth,
	}, true
}

func classifyOrientation(a, b geom.Point2D, tolDeg float64) (Orientation, bool) {
	angle := math.Abs(math.Atan2(b.Y-a.Y, b.X-a.X)) * 180.0 / math.Pi
	if angle > 90 {
		angle = 180 - angle
	}
	switch {
	case angle <= tolDeg:
		return Horizontal, true
	case angle >= 90-tolDeg:
		return Vertical, true
	default:
		return "", false
	}
}

// removeLengthOutliers drops segments longer than Q3 + k*IQR. Border
// and viewport frame lines are the usual casualties.
func (d *Detector) removeLengthOutliers(segs []Segment) ([]Segment, int) {
	if len(segs) < 4 {
		return segs, 0
	}
	lengths := make([]float64, len(segs))
	for i, s := range segs {
		lengths[i] = s.LengthPts
	}
	sort.Float64s(lengths)
	q1 := stat.Quantile(0.25, stat.Empirical, lengths, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, lengths, nil)
	cutoff := q3 + d.cfg.GetOutlierIQRFactor()*(q3-q1)

	kept := segs[:0:0]
	dropped := 0
	for _, s := range segs {
		if s.LengthPts > cutoff {
			dropped++
			continue
		}
		kept = append(kept, s)
	}
	return kept, dropped
}

// medianPairGap pairs parallel segments whose perpendicular gap falls
// in the wall-thickness band and whose extents overlap, then returns
// the median gap. The band is the plausible real-inch thickness range
// converted at scaleFactor; without a scale the configured point band
// applies. Nil when the plan has no such pairs.
func (d *Detector) medianPairGap(segs []Segment, scaleFactor float64) *float64 {
	minGap := d.cfg.GetPairMinGapPts()
	maxGap := d.cfg.GetPairMaxGapPts()
	if scaleFactor > 0 {
		minGap = units.RealInchesToPts(thicknessMinRealIn, scaleFactor)
		maxGap = units.RealInchesToPts(thicknessMaxRealIn, scaleFactor)
	}

	var gaps []float64
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			a, b := segs[i], segs[j]
			if a.Orientation != b.Orientation {
				continue
			}
			gap, overlaps := pairGap(a, b)
			if !overlaps || gap < minGap || gap > maxGap {
				continue
			}
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return nil
	}
	sort.Float64s(gaps)
	med := stat.Quantile(0.5, stat.Empirical, gaps, nil)
	return &med
}

func pairGap(a, b Segment) (gap float64, overlaps bool) {
	if a.Orientation == Horizontal {
		gap = math.Abs(midY(a) - midY(b))
		aLo, aHi := ordered(a.Start.X, a.End.X)
		bLo, bHi := ordered(b.Start.X, b.End.X)
		return gap, math.Min(aHi, bHi) > math.Max(aLo, bLo)
	}
	gap = math.Abs(midX(a) - midX(b))
	aLo, aHi := ordered(a.Start.Y, a.End.Y)
	bLo, bHi := ordered(b.Start.Y, b.End.Y)
	return gap, math.Min(aHi, bHi) > math.Max(aLo, bLo)
}

func midX(s Segment) float64 { return (s.Start.X + s.End.X) / 2 }
func midY(s Segment) float64 { return (s.Start.Y + s.End.Y) / 2 }

func ordered(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}

// outerBoundary is the convex hull of all segment endpoints, the
// fallback building outline when room polygonization fails.
func outerBoundary(segs []Segment) []geom.Point2D {
	if len(segs) == 0 {
		return nil
	}
	pts := make([]geom.Point2D, 0, len(segs)*2)
	for _, s := range segs {
		pts = append(pts, s.Start, s.End)
	}
	return geom.ConvexHull(pts)
}
