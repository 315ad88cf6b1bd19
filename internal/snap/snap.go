// Package snap welds nearly-coincident wall segment endpoints together
// so that polygonization sees a closed graph instead of a cloud of
// almost-touching corners. Endpoints within tolerance collapse to their
// cluster centroid; snapping is idempotent for tolerances below the
// minimum wall length.
package snap

import (
	"math"
	"sort"

	"github.com/draftscale/takeoff/internal/config"
	"github.com/draftscale/takeoff/internal/geom"
	"github.com/draftscale/takeoff/internal/walls"
)

// Snapper clusters segment endpoints.
type Snapper struct {
	cfg *config.TuningConfig
}

// NewSnapper returns a Snapper using cfg thresholds.
func NewSnapper(cfg *config.TuningConfig) *Snapper {
	if cfg == nil {
		cfg = &config.TuningConfig{}
	}
	return &Snapper{cfg: cfg}
}

// Endpoints snaps the endpoints of segs and returns the cleaned set:
// segments collapsing to a point and duplicate segments (same unordered
// endpoint pair) are dropped, and orientations are reclassified from
// the moved endpoints. The output order follows the input order of the
// surviving segments, so results are deterministic.
func (s *Snapper) Endpoints(segs []walls.Segment) []walls.Segment {
	if len(segs) == 0 {
		return nil
	}
	tol := s.cfg.GetSnapTolerancePts()
	tolDeg := s.cfg.GetAngleToleranceDeg()

	pts := make([]geom.Point2D, 0, len(segs)*2)
	for _, sg := range segs {
		pts = append(pts, sg.Start, sg.End)
	}
	snapped := clusterPoints(pts, tol)

	type pairKey struct{ a, b geom.Point2D }
	seen := make(map[pairKey]bool)
	var out []walls.Segment
	for i, sg := range segs {
		start := snapped[2*i]
		end := snapped[2*i+1]
		length := start.Distance(end)
		if length < 1e-9 {
			continue
		}
		key := orderPair(start, end)
		if seen[pairKey{key[0], key[1]}] {
			continue
		}
		seen[pairKey{key[0], key[1]}] = true

		orient := reclassify(start, end, tolDeg)
		out = append(out, walls.Segment{
			Start:       start,
			End:         end,
			Orientation: orient,
			LengthPts:   length,
			StrokePts:   sg.StrokePts,
		})
	}
	return out
}

// clusterPoints unions points within tol of each other and maps every
// point to its cluster centroid. Clustering is transitive: a chain of
// nearby points merges even when its ends are farther apart than tol.
func clusterPoints(pts []geom.Point2D, tol float64) []geom.Point2D {
	parent := make([]int, len(pts))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if pts[i].Distance(pts[j]) <= tol {
				union(i, j)
			}
		}
	}

	type acc struct {
		sumX, sumY float64
		n          int
	}
	sums := make(map[int]*acc)
	for i, p := range pts {
		r := find(i)
		a := sums[r]
		if a == nil {
			a = &acc{}
			sums[r] = a
		}
		a.sumX += p.X
		a.sumY += p.Y
		a.n++
	}

	out := make([]geom.Point2D, len(pts))
	for i := range pts {
		a := sums[find(i)]
		out[i] = geom.Point2D{X: a.sumX / float64(a.n), Y: a.sumY / float64(a.n)}
	}
	return out
}

func orderPair(a, b geom.Point2D) [2]geom.Point2D {
	if a.X < b.X || (a.X == b.X && a.Y <= b.Y) {
		return [2]geom.Point2D{a, b}
	}
	return [2]geom.Point2D{b, a}
}

// reclassify recomputes the orientation after endpoints moved. Snapping
// can tilt a formerly axis-aligned segment; anything within tolDeg of
// an axis keeps that axis, the rest becomes angled and drops out of
// pair analysis downstream.
func reclassify(a, b geom.Point2D, tolDeg float64) walls.Orientation {
	angle := math.Abs(math.Atan2(b.Y-a.Y, b.X-a.X)) * 180.0 / math.Pi
	if angle > 90 {
		angle = 180 - angle
	}
	switch {
	case angle <= tolDeg:
		return walls.Horizontal
	case angle >= 90-tolDeg:
		return walls.Vertical
	default:
		return walls.Angled
	}
}

// ToGrid snaps every endpoint to a regular grid of the given cell size.
// Coarser than Endpoints and not used in the main pipeline; useful for
// visual debugging of messy plans.
func (s *Snapper) ToGrid(segs []walls.Segment, cell float64) []walls.Segment {
	if cell <= 0 {
		return segs
	}
	tolDeg := s.cfg.GetAngleToleranceDeg()
	out := make([]walls.Segment, 0, len(segs))
	for _, sg := range segs {
		start := geom.Point2D{X: math.Round(sg.Start.X/cell) * cell, Y: math.Round(sg.Start.Y/cell) * cell}
		end := geom.Point2D{X: math.Round(sg.End.X/cell) * cell, Y: math.Round(sg.End.Y/cell) * cell}
		if start.Distance(end) < 1e-9 {
			continue
		}
		out = append(out, walls.Segment{
			Start:       start,
			End:         end,
			Orientation: reclassify(start, end, tolDeg),
			LengthPts:   start.Distance(end),
			StrokePts:   sg.StrokePts,
		})
	}
	return out
}

// sortSegments orders segments lexicographically. Only used by tests
// that compare sets.
func sortSegments(segs []walls.Segment) {
	sort.Slice(segs, func(i, j int) bool {
		a, b := segs[i], segs[j]
		if a.Start.X != b.Start.X {
			return a.Start.X < b.Start.X
		}
		if a.Start.Y != b.Start.Y {
			return a.Start.Y < b.Start.Y
		}
		if a.End.X != b.End.X {
			return a.End.X < b.End.X
		}
		return a.End.Y < b.End.Y
	})
}
