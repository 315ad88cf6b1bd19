package geom

import (
	"math"
	"sort"
)

// openRing drops a trailing vertex that duplicates the first, so the
// polygon helpers accept both open and closed rings.
func openRing(ring []Point2D) []Point2D {
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		return ring[:n-1]
	}
	return ring
}

// CloseRing returns ring with the first vertex appended if the ring is
// not already closed.
func CloseRing(ring []Point2D) []Point2D {
	n := len(ring)
	if n == 0 || ring[0] == ring[n-1] {
		return ring
	}
	out := make([]Point2D, n+1)
	copy(out, ring)
	out[n] = ring[0]
	return out
}

// SignedArea returns the shoelace signed area of ring. Positive for
// counterclockwise winding in standard axis orientation.
func SignedArea(ring []Point2D) float64 {
	r := openRing(ring)
	n := len(r)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return sum / 2
}

// PolygonArea returns the absolute area of ring in square points.
func PolygonArea(ring []Point2D) float64 {
	return math.Abs(SignedArea(ring))
}

// PolygonPerimeter returns the closed perimeter length of ring.
func PolygonPerimeter(ring []Point2D) float64 {
	r := openRing(ring)
	n := len(r)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += r[i].Distance(r[(i+1)%n])
	}
	return sum
}

// PolygonCentroid returns the area-weighted centroid of ring. Degenerate
// rings (zero area) fall back to the vertex mean.
func PolygonCentroid(ring []Point2D) Point2D {
	r := openRing(ring)
	n := len(r)
	if n == 0 {
		return Point2D{}
	}
	var cx, cy, a float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := r[i].X*r[j].Y - r[j].X*r[i].Y
		a += cross
		cx += (r[i].X + r[j].X) * cross
		cy += (r[i].Y + r[j].Y) * cross
	}
	if math.Abs(a) < 1e-12 {
		var sx, sy float64
		for _, p := range r {
			sx += p.X
			sy += p.Y
		}
		return Point2D{X: sx / float64(n), Y: sy / float64(n)}
	}
	return Point2D{X: cx / (3 * a), Y: cy / (3 * a)}
}

// PolygonContains reports whether p lies inside ring (ray casting;
// points exactly on an edge count as inside).
func PolygonContains(ring []Point2D, p Point2D) bool {
	r := openRing(ring)
	n := len(r)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := r[i], r[j]
		// On-edge check.
		if distPointToSegment(p, a, b) < 1e-9 {
			return true
		}
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

func distPointToSegment(p, a, b Point2D) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return p.Distance(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Distance(Point2D{X: a.X + t*dx, Y: a.Y + t*dy})
}

// ConvexHull returns the convex hull of points as an open ring in
// counterclockwise order (Andrew's monotone chain). Fewer than three
// distinct points yield nil.
func ConvexHull(points []Point2D) []Point2D {
	pts := make([]Point2D, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	// Dedupe.
	uniq := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	n := len(pts)
	if n < 3 {
		return nil
	}

	cross := func(o, a, b Point2D) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]Point2D, 0, 2*n)
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]
	if len(hull) < 3 {
		return nil
	}
	return hull
}

// SegmentIntersections returns the points where segment (a1,a2) meets
// segment (b1,b2), including endpoint touches. Collinear overlaps yield
// the endpoints of the shared span (up to two points). No intersection
// yields nil.
func SegmentIntersections(a1, a2, b1, b2 Point2D) []Point2D {
	const eps = 1e-9
	d1 := Point2D{X: a2.X - a1.X, Y: a2.Y - a1.Y}
	d2 := Point2D{X: b2.X - b1.X, Y: b2.Y - b1.Y}
	denom := d1.X*d2.Y - d1.Y*d2.X
	diff := Point2D{X: b1.X - a1.X, Y: b1.Y - a1.Y}

	if math.Abs(denom) > eps {
		t := (diff.X*d2.Y - diff.Y*d2.X) / denom
		u := (diff.X*d1.Y - diff.Y*d1.X) / denom
		if t >= -eps && t <= 1+eps && u >= -eps && u <= 1+eps {
			return []Point2D{{X: a1.X + t*d1.X, Y: a1.Y + t*d1.Y}}
		}
		return nil
	}

	// Parallel: only collinear segments can intersect.
	if math.Abs(diff.X*d1.Y-diff.Y*d1.X) > eps {
		return nil
	}
	// Project b's endpoints onto a's parameter space.
	l2 := d1.X*d1.X + d1.Y*d1.Y
	if l2 < eps {
		if a1.Distance(b1) < eps || distPointToSegment(a1, b1, b2) < eps {
			return []Point2D{a1}
		}
		return nil
	}
	tOf := func(p Point2D) float64 {
		return ((p.X-a1.X)*d1.X + (p.Y-a1.Y)*d1.Y) / l2
	}
	t0, t1 := tOf(b1), tOf(b2)
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	lo := math.Max(0, t0)
	hi := math.Min(1, t1)
	if lo > hi+eps {
		return nil
	}
	at := func(t float64) Point2D {
		return Point2D{X: a1.X + t*d1.X, Y: a1.Y + t*d1.Y}
	}
	if hi-lo < eps {
		return []Point2D{at(lo)}
	}
	return []Point2D{at(lo), at(hi)}
}
