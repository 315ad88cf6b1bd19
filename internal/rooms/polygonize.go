package rooms

import (
	"math"
	"sort"

	"github.com/draftscale/takeoff/internal/geom"
)

// vertex quantization grid. Noding produces intersection points whose
// coordinates differ only by float error; quantizing welds them.
const quantum = 1e-6

type vertexKey struct{ x, y int64 }

func keyOf(p geom.Point2D) vertexKey {
	return vertexKey{
		x: int64(math.Round(p.X / quantum)),
		y: int64(math.Round(p.Y / quantum)),
	}
}

// polygonize converts a set of line segments into the closed regions
// they bound. Segments are noded at every mutual intersection, split,
// and assembled into a planar graph; each bounded face of the graph is
// returned as a polygon ring in counter-clockwise order. Dangling stubs
// (degree-1 chains) are pruned before face tracing. Returns nil when
// the graph encloses nothing.
func polygonize(segments [][2]geom.Point2D) [][]geom.Point2D {
	if len(segments) < 3 {
		return nil
	}

	noded := nodeSegments(segments)
	verts, adj := buildGraph(noded)
	pruneStubs(verts, adj)
	return traceFaces(verts, adj)
}

// nodeSegments splits every segment at its intersections with every
// other segment, including collinear overlap endpoints.
func nodeSegments(segments [][2]geom.Point2D) [][2]geom.Point2D {
	cuts := make([][]float64, len(segments))
	for i := range segments {
		cuts[i] = []float64{0, 1}
	}
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			pts := geom.SegmentIntersections(
				segments[i][0], segments[i][1],
				segments[j][0], segments[j][1])
			for _, p := range pts {
				if t, ok := paramOn(segments[i], p); ok {
					cuts[i] = append(cuts[i], t)
				}
				if t, ok := paramOn(segments[j], p); ok {
					cuts[j] = append(cuts[j], t)
				}
			}
		}
	}

	var out [][2]geom.Point2D
	for i, seg := range segments {
		ts := cuts[i]
		sort.Float64s(ts)
		for k := 0; k+1 < len(ts); k++ {
			if ts[k+1]-ts[k] < 1e-12 {
				continue
			}
			out = append(out, [2]geom.Point2D{
				lerp(seg, ts[k]),
				lerp(seg, ts[k+1]),
			})
		}
	}
	return out
}

func paramOn(seg [2]geom.Point2D, p geom.Point2D) (float64, bool) {
	dx := seg[1].X - seg[0].X
	dy := seg[1].Y - seg[0].Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return 0, false
	}
	t := ((p.X-seg[0].X)*dx + (p.Y-seg[0].Y)*dy) / lenSq
	if t < -1e-9 || t > 1+1e-9 {
		return 0, false
	}
	return math.Max(0, math.Min(1, t)), true
}

func lerp(seg [2]geom.Point2D, t float64) geom.Point2D {
	return geom.Point2D{
		X: seg[0].X + t*(seg[1].X-seg[0].X),
		Y: seg[0].Y + t*(seg[1].Y-seg[0].Y),
	}
}

// buildGraph quantizes vertices and collects the deduplicated
// undirected adjacency lists.
func buildGraph(segments [][2]geom.Point2D) ([]geom.Point2D, [][]int) {
	ids := make(map[vertexKey]int)
	var verts []geom.Point2D
	intern := func(p geom.Point2D) int {
		k := keyOf(p)
		if id, ok := ids[k]; ok {
			return id
		}
		id := len(verts)
		ids[k] = id
		verts = append(verts, p)
		return id
	}

	adjSet := make(map[[2]int]bool)
	adj := make([][]int, 0)
	grow := func(n int) {
		for len(adj) <= n {
			adj = append(adj, nil)
		}
	}
	for _, seg := range segments {
		a := intern(seg[0])
		b := intern(seg[1])
		if a == b {
			continue
		}
		lo, hi := a, b
		if lo > hi {
			lo, hi = hi, lo
		}
		if adjSet[[2]int{lo, hi}] {
			continue
		}
		adjSet[[2]int{lo, hi}] = true
		grow(a)
		grow(b)
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	grow(len(verts) - 1)
	return verts, adj
}

// pruneStubs iteratively removes degree-1 vertices. Extension stubs
// left by segment extension and any unconnected spur walls disappear
// here; only the cycle-bearing core survives.
func pruneStubs(verts []geom.Point2D, adj [][]int) {
	degree := make([]int, len(adj))
	queue := []int{}
	for v, ns := range adj {
		degree[v] = len(ns)
		if degree[v] == 1 {
			queue = append(queue, v)
		}
	}
	removed := make([]bool, len(adj))
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if removed[v] || degree[v] != 1 {
			continue
		}
		removed[v] = true
		for _, n := range adj[v] {
			if removed[n] {
				continue
			}
			degree[n]--
			if degree[n] == 1 {
				queue = append(queue, n)
			}
		}
	}
	for v := range adj {
		if removed[v] {
			adj[v] = nil
			continue
		}
		kept := adj[v][:0:0]
		for _, n := range adj[v] {
			if !removed[n] {
				kept = append(kept, n)
			}
		}
		adj[v] = kept
	}
}

// traceFaces walks every half-edge of the planar graph once, emitting
// each bounded face. At a vertex reached via edge u->v, the walk leaves
// along the outgoing edge whose angle is the largest one strictly below
// the angle back to u, wrapping around when none is; bounded faces come
// out with positive signed area and the single unbounded face comes out
// negative and is discarded.
func traceFaces(verts []geom.Point2D, adj [][]int) [][]geom.Point2D {
	type ordered struct {
		to    int
		angle float64
	}
	out := make([][]ordered, len(adj))
	for v, ns := range adj {
		for _, n := range ns {
			out[v] = append(out[v], ordered{
				to:    n,
				angle: math.Atan2(verts[n].Y-verts[v].Y, verts[n].X-verts[v].X),
			})
		}
		sort.Slice(out[v], func(i, j int) bool { return out[v][i].angle < out[v][j].angle })
	}

	next := func(u, v int) int {
		back := math.Atan2(verts[u].Y-verts[v].Y, verts[u].X-verts[v].X)
		cands := out[v]
		best := -1
		for i, c := range cands {
			if c.angle < back-1e-12 {
				best = i
			}
		}
		if best == -1 {
			best = len(cands) - 1
		}
		return cands[best].to
	}

	visited := make(map[[2]int]bool)
	var faces [][]geom.Point2D
	for u, ns := range adj {
		for _, v := range ns {
			if visited[[2]int{u, v}] {
				continue
			}
			var ring []int
			cu, cv := u, v
			ok := true
			for {
				visited[[2]int{cu, cv}] = true
				ring = append(ring, cu)
				cu, cv = cv, next(cu, cv)
				if cu == u && cv == v {
					break
				}
				if len(ring) > 4*len(verts) {
					ok = false
					break
				}
			}
			if !ok || len(ring) < 3 {
				continue
			}
			poly := make([]geom.Point2D, len(ring))
			for i, id := range ring {
				poly[i] = verts[id]
			}
			if geom.SignedArea(poly) > 0 {
				faces = append(faces, poly)
			}
		}
	}
	return faces
}
