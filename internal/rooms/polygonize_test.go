package rooms

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftscale/takeoff/internal/geom"
)

func segPair(x1, y1, x2, y2 float64) [2]geom.Point2D {
	return [2]geom.Point2D{{X: x1, Y: y1}, {X: x2, Y: y2}}
}

func rectSegments(x, y, w, h float64) [][2]geom.Point2D {
	return [][2]geom.Point2D{
		segPair(x, y, x+w, y),
		segPair(x+w, y, x+w, y+h),
		segPair(x+w, y+h, x, y+h),
		segPair(x, y+h, x, y),
	}
}

func totalArea(faces [][]geom.Point2D) float64 {
	sum := 0.0
	for _, f := range faces {
		sum += geom.PolygonArea(f)
	}
	return sum
}

func TestPolygonize(t *testing.T) {
	t.Run("closed rectangle yields one face", func(t *testing.T) {
		faces := polygonize(rectSegments(0, 0, 200, 100))
		require.Len(t, faces, 1)
		assert.InDelta(t, 200*100, geom.PolygonArea(faces[0]), 1e-6)
	})

	t.Run("dividing wall yields two faces", func(t *testing.T) {
		segs := rectSegments(0, 0, 200, 100)
		segs = append(segs, segPair(100, 0, 100, 100))
		faces := polygonize(segs)
		require.Len(t, faces, 2)
		assert.InDelta(t, 200*100, totalArea(faces), 1e-6)
		for _, f := range faces {
			assert.InDelta(t, 100*100, geom.PolygonArea(f), 1e-6)
		}
	})

	t.Run("extension overshoot is pruned", func(t *testing.T) {
		// segments extended 1 pt past every corner, as the detector
		// produces them
		var segs [][2]geom.Point2D
		for _, s := range rectSegments(0, 0, 200, 100) {
			dx := s[1].X - s[0].X
			dy := s[1].Y - s[0].Y
			l := math.Hypot(dx, dy)
			ux, uy := dx/l, dy/l
			segs = append(segs, [2]geom.Point2D{
				{X: s[0].X - ux, Y: s[0].Y - uy},
				{X: s[1].X + ux, Y: s[1].Y + uy},
			})
		}
		faces := polygonize(segs)
		require.Len(t, faces, 1)
		assert.InDelta(t, 200*100, geom.PolygonArea(faces[0]), 1e-6)
	})

	t.Run("open graph yields nothing", func(t *testing.T) {
		segs := [][2]geom.Point2D{
			segPair(0, 0, 100, 0),
			segPair(100, 0, 100, 100),
			segPair(100, 100, 0, 100),
		}
		assert.Empty(t, polygonize(segs))
	})

	t.Run("crossing segments without a cycle yield nothing", func(t *testing.T) {
		segs := [][2]geom.Point2D{
			segPair(0, 50, 200, 50),
			segPair(100, 0, 100, 100),
			segPair(50, 0, 50, 100),
		}
		assert.Empty(t, polygonize(segs))
	})

	t.Run("too few segments", func(t *testing.T) {
		assert.Nil(t, polygonize([][2]geom.Point2D{segPair(0, 0, 1, 0)}))
	})

	t.Run("nested rectangles yield both faces", func(t *testing.T) {
		segs := rectSegments(0, 0, 200, 200)
		segs = append(segs, rectSegments(50, 50, 50, 50)...)
		faces := polygonize(segs)
		// the inner rectangle and the outer region are both bounded
		require.Len(t, faces, 2)
	})
}
