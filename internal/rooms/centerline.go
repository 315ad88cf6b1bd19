package rooms

import (
	"math"
	"sort"

	"github.com/draftscale/takeoff/internal/geom"
	"github.com/draftscale/takeoff/internal/monitoring"
	"github.com/draftscale/takeoff/internal/walls"
)

// Plans that draw each wall as two parallel strokes polygonize into
// thin slivers between the strokes. Centerline extraction collapses
// each such pair to its midline first: segments are grouped by their
// cross-axis coordinate, groups are paired when their gap falls in the
// wall-thickness band, and the paired extents merge onto the midline.
// Doorway gaps along a midline are bridged and midlines are extended to
// meet their perpendicular neighbors.

const (
	// cross-axis tolerance when grouping near-collinear segments
	groupTolerancePts = 2.0
	// regrouping tolerance for produced centerlines
	mergeTolerancePts = 1.0
	// furthest a centerline end reaches toward a perpendicular line
	intersectReachPts = 80.0
	// centerline fragments shorter than this are dropped
	minFragmentPts = 1.0
)

type interval struct{ lo, hi float64 }

// lineGroup is a set of near-collinear same-orientation segments,
// keyed by the mean cross-axis coordinate.
type lineGroup struct {
	key    float64
	spans  []interval
	stroke float64
}

// Centerlines collapses parallel wall-stroke pairs in segs to single
// midlines. Segments that pair with nothing pass through unchanged.
func (d *Detector) Centerlines(segs []walls.Segment) []walls.Segment {
	var hs, vs []walls.Segment
	for _, s := range segs {
		if s.Orientation == walls.Horizontal {
			hs = append(hs, s)
		} else {
			vs = append(vs, s)
		}
	}

	minGap := d.cfg.GetCenterlineMinGapPts()
	maxGap := d.cfg.GetCenterlineMaxGapPts()

	hLines := d.collapse(hs, walls.Horizontal, minGap, maxGap)
	vLines := d.collapse(vs, walls.Vertical, minGap, maxGap)

	doorway := d.cfg.GetDoorwayGapPts()
	hLines = closeGaps(hLines, doorway)
	vLines = closeGaps(vLines, doorway)

	out := extendToIntersections(hLines, vLines)
	monitoring.Logf("rooms: centerlines collapsed %d segments to %d", len(segs), len(out))
	return out
}

func (d *Detector) collapse(segs []walls.Segment, orient walls.Orientation, minGap, maxGap float64) []walls.Segment {
	groups := groupByCross(segs, orient)

	paired := make([]bool, len(groups))
	var lines []walls.Segment
	// Greedy nearest pairing: each group joins its closest unpaired
	// neighbor inside the thickness band.
	for i := range groups {
		if paired[i] {
			continue
		}
		best, bestGap := -1, maxGap
		for j := range groups {
			if j == i || paired[j] {
				continue
			}
			gap := math.Abs(groups[i].key - groups[j].key)
			if gap >= minGap && gap <= bestGap {
				best, bestGap = j, gap
			}
		}
		if best < 0 {
			continue
		}
		paired[i], paired[best] = true, true
		mid := (groups[i].key + groups[best].key) / 2
		spans := mergeIntervals(append(append([]interval{}, groups[i].spans...), groups[best].spans...))
		stroke := math.Max(groups[i].stroke, groups[best].stroke)
		for _, sp := range spans {
			if sp.hi-sp.lo < minFragmentPts {
				continue
			}
			lines = append(lines, makeSegment(orient, mid, sp, stroke))
		}
	}
	// Unpaired groups keep their original geometry.
	for i, g := range groups {
		if paired[i] {
			continue
		}
		for _, sp := range mergeIntervals(g.spans) {
			if sp.hi-sp.lo < minFragmentPts {
				continue
			}
			lines = append(lines, makeSegment(orient, g.key, sp, g.stroke))
		}
	}
	return lines
}

// groupByCross buckets segments whose cross-axis coordinates sit within
// groupTolerancePts of each other, by sorted scan. Group keys are the
// running mean of member coordinates.
func groupByCross(segs []walls.Segment, orient walls.Orientation) []lineGroup {
	return groupByCrossTol(segs, orient, groupTolerancePts)
}

// closeGaps regroups lines and merges collinear spans whose separation
// is at most maxGap, bridging doorway and window openings.
func closeGaps(lines []walls.Segment, maxGap float64) []walls.Segment {
	if len(lines) == 0 {
		return lines
	}
	orient := lines[0].Orientation
	groups := groupByCrossTol(lines, orient, mergeTolerancePts)

	var out []walls.Segment
	for _, g := range groups {
		spans := mergeIntervalsGap(g.spans, maxGap)
		for _, sp := range spans {
			out = append(out, makeSegment(orient, g.key, sp, g.stroke))
		}
	}
	return out
}

func groupByCrossTol(lines []walls.Segment, orient walls.Orientation, tol float64) []lineGroup {
	sort.Slice(lines, func(i, j int) bool {
		return crossOf(lines[i], orient) < crossOf(lines[j], orient)
	})
	var groups []lineGroup
	for _, l := range lines {
		cross := crossOf(l, orient)
		span := spanOf(l, orient)
		if n := len(groups); n > 0 && cross-groups[n-1].key <= tol {
			g := &groups[n-1]
			count := float64(len(g.spans))
			g.key = (g.key*count + cross) / (count + 1)
			g.spans = append(g.spans, span)
			g.stroke = math.Max(g.stroke, l.StrokePts)
			continue
		}
		groups = append(groups, lineGroup{key: cross, spans: []interval{span}, stroke: l.StrokePts})
	}
	return groups
}

func crossOf(s walls.Segment, orient walls.Orientation) float64 {
	if orient == walls.Horizontal {
		return (s.Start.Y + s.End.Y) / 2
	}
	return (s.Start.X + s.End.X) / 2
}

func spanOf(s walls.Segment, orient walls.Orientation) interval {
	var lo, hi float64
	if orient == walls.Horizontal {
		lo, hi = ordered(s.Start.X, s.End.X)
	} else {
		lo, hi = ordered(s.Start.Y, s.End.Y)
	}
	return interval{lo, hi}
}

// extendToIntersections stretches each line's endpoints to the nearest
// perpendicular line within reach, closing the corner gaps left by
// collapsing pairs of different thickness.
func extendToIntersections(hLines, vLines []walls.Segment) []walls.Segment {
	out := make([]walls.Segment, 0, len(hLines)+len(vLines))
	for _, h := range hLines {
		lo, hi := ordered(h.Start.X, h.End.X)
		y := (h.Start.Y + h.End.Y) / 2
		for _, v := range vLines {
			x := (v.Start.X + v.End.X) / 2
			vLo, vHi := ordered(v.Start.Y, v.End.Y)
			if y < vLo-intersectReachPts || y > vHi+intersectReachPts {
				continue
			}
			if x < lo && lo-x <= intersectReachPts {
				lo = x
			}
			if x > hi && x-hi <= intersectReachPts {
				hi = x
			}
		}
		out = append(out, makeSegment(walls.Horizontal, y, interval{lo, hi}, h.StrokePts))
	}
	for _, v := range vLines {
		lo, hi := ordered(v.Start.Y, v.End.Y)
		x := (v.Start.X + v.End.X) / 2
		for _, h := range hLines {
			y := (h.Start.Y + h.End.Y) / 2
			hLo, hHi := ordered(h.Start.X, h.End.X)
			if x < hLo-intersectReachPts || x > hHi+intersectReachPts {
				continue
			}
			if y < lo && lo-y <= intersectReachPts {
				lo = y
			}
			if y > hi && y-hi <= intersectReachPts {
				hi = y
			}
		}
		out = append(out, makeSegment(walls.Vertical, x, interval{lo, hi}, v.StrokePts))
	}
	return out
}

func makeSegment(orient walls.Orientation, cross float64, sp interval, stroke float64) walls.Segment {
	var start, end geom.Point2D
	if orient == walls.Horizontal {
		start = geom.Point2D{X: sp.lo, Y: cross}
		end = geom.Point2D{X: sp.hi, Y: cross}
	} else {
		start = geom.Point2D{X: cross, Y: sp.lo}
		end = geom.Point2D{X: cross, Y: sp.hi}
	}
	return walls.Segment{
		Start:       start,
		End:         end,
		Orientation: orient,
		LengthPts:   sp.hi - sp.lo,
		StrokePts:   stroke,
	}
}

func mergeIntervals(spans []interval) []interval {
	return mergeIntervalsGap(spans, 0)
}

func mergeIntervalsGap(spans []interval, maxGap float64) []interval {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })
	merged := []interval{spans[0]}
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.lo <= last.hi+maxGap {
			if sp.hi > last.hi {
				last.hi = sp.hi
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

func ordered(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}
