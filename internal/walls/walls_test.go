package walls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftscale/takeoff/internal/geom"
)

func line(x1, y1, x2, y2, width float64) geom.VectorPath {
	pts := []geom.Point2D{{X: x1, Y: y1}, {X: x2, Y: y2}}
	return geom.VectorPath{
		PathType:     geom.PathLine,
		Points:       pts,
		LineWidth:    width,
		BoundingRect: geom.BBoxOf(pts),
	}
}

// rectWalls is a 200x100 pt rectangle of wall strokes.
func rectWalls(width float64) []geom.VectorPath {
	return []geom.VectorPath{
		line(0, 0, 200, 0, width),
		line(0, 100, 200, 100, width),
		line(0, 0, 0, 100, width),
		line(200, 0, 200, 100, width),
	}
}

func TestDetect(t *testing.T) {
	d := NewDetector(nil)

	t.Run("keeps rectangle walls", func(t *testing.T) {
		a := d.Detect(geom.DrawingData{Paths: rectWalls(1.5)}, 0)
		require.Len(t, a.Segments, 4)
		assert.Equal(t, 4, a.CandidateCount)
		assert.Zero(t, a.RejectedCount)
		assert.InDelta(t, 200*100, a.EnclosedAreaPts, 1e-6)
		require.Len(t, a.OuterBoundary, 4)
	})

	t.Run("rejects thin strokes", func(t *testing.T) {
		paths := append(rectWalls(1.5), line(10, 10, 190, 10, 0.3))
		a := d.Detect(geom.DrawingData{Paths: paths}, 0)
		assert.Len(t, a.Segments, 4)
		assert.Equal(t, 1, a.RejectedCount)
	})

	t.Run("rejects short segments", func(t *testing.T) {
		paths := append(rectWalls(1.5), line(10, 10, 30, 10, 1.5))
		a := d.Detect(geom.DrawingData{Paths: paths}, 0)
		assert.Len(t, a.Segments, 4)
	})

	t.Run("rejects light colors", func(t *testing.T) {
		grey := line(10, 10, 190, 10, 1.5)
		grey.StrokeColor = &geom.Color{R: 0.8, G: 0.8, B: 0.8}
		a := d.Detect(geom.DrawingData{Paths: append(rectWalls(1.5), grey)}, 0)
		assert.Len(t, a.Segments, 4)
	})

	t.Run("missing stroke color counts as dark", func(t *testing.T) {
		a := d.Detect(geom.DrawingData{Paths: rectWalls(1.5)}, 0)
		assert.Len(t, a.Segments, 4)
	})

	t.Run("rejects diagonals", func(t *testing.T) {
		paths := append(rectWalls(1.5), line(0, 0, 150, 150, 1.5))
		a := d.Detect(geom.DrawingData{Paths: paths}, 0)
		assert.Len(t, a.Segments, 4)
	})

	t.Run("keeps slightly tilted axis lines", func(t *testing.T) {
		// about 0.57 degrees off horizontal, inside the 2 degree band
		paths := []geom.VectorPath{line(0, 0, 200, 2, 1.5)}
		a := d.Detect(geom.DrawingData{Paths: paths}, 0)
		require.Len(t, a.Segments, 1)
		assert.Equal(t, Horizontal, a.Segments[0].Orientation)
	})

	t.Run("drops length outliers", func(t *testing.T) {
		paths := append(rectWalls(1.5), line(0, 500, 3000, 500, 1.5))
		a := d.Detect(geom.DrawingData{Paths: paths}, 0)
		assert.Len(t, a.Segments, 4, "sheet border line should be dropped")
		assert.Equal(t, 1, a.RejectedCount)
	})

	t.Run("ignores non-line paths", func(t *testing.T) {
		rect := geom.VectorPath{
			PathType:     geom.PathRect,
			Points:       []geom.Point2D{{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 50, Y: 50}, {X: 0, Y: 50}},
			LineWidth:    2.0,
			BoundingRect: geom.BoundingRect{X: 0, Y: 0, Width: 50, Height: 50},
		}
		a := d.Detect(geom.DrawingData{Paths: []geom.VectorPath{rect}}, 0)
		assert.Empty(t, a.Segments)
		assert.Zero(t, a.CandidateCount)
	})
}

func TestThickness(t *testing.T) {
	d := NewDetector(nil)

	t.Run("parallel pair in band yields thickness", func(t *testing.T) {
		paths := []geom.VectorPath{
			line(0, 0, 200, 0, 1.5),
			line(0, 6, 200, 6, 1.5),
		}
		a := d.Detect(geom.DrawingData{Paths: paths}, 0)
		require.NotNil(t, a.ThicknessPts)
		assert.InDelta(t, 6.0, *a.ThicknessPts, 1e-9)
	})

	t.Run("single-line walls have no thickness", func(t *testing.T) {
		a := d.Detect(geom.DrawingData{Paths: rectWalls(1.5)}, 0)
		assert.Nil(t, a.ThicknessPts, "100 pt separation is outside the thickness band")
	})

	t.Run("non-overlapping parallels do not pair", func(t *testing.T) {
		paths := []geom.VectorPath{
			line(0, 0, 100, 0, 1.5),
			line(150, 6, 250, 6, 1.5),
		}
		a := d.Detect(geom.DrawingData{Paths: paths}, 0)
		assert.Nil(t, a.ThicknessPts)
	})

	t.Run("scale sizes the pairing band", func(t *testing.T) {
		// a 6 pt gap is 4 real inches at 1/4" scale but 8 at 1/8",
		// so it pairs at both; a 12 pt gap is 16 real inches at 1/8"
		// and falls outside the band there.
		pair := func(gap float64) []geom.VectorPath {
			return []geom.VectorPath{
				line(0, 0, 200, 0, 1.5),
				line(0, gap, 200, gap, 1.5),
			}
		}

		a := d.Detect(geom.DrawingData{Paths: pair(6)}, 48)
		require.NotNil(t, a.ThicknessPts)
		assert.InDelta(t, 6.0, *a.ThicknessPts, 1e-9)

		a = d.Detect(geom.DrawingData{Paths: pair(12)}, 48)
		require.NotNil(t, a.ThicknessPts, "12 pt gap is 8 real inches at 1/4 inch scale")
		assert.InDelta(t, 12.0, *a.ThicknessPts, 1e-9)

		a = d.Detect(geom.DrawingData{Paths: pair(12)}, 96)
		assert.Nil(t, a.ThicknessPts, "12 pt gap is 16 real inches at 1/8 inch scale")

		a = d.Detect(geom.DrawingData{Paths: pair(2)}, 48)
		assert.Nil(t, a.ThicknessPts, "2 pt gap is under 4 real inches at 1/4 inch scale")
	})
}

func TestEmptyInput(t *testing.T) {
	a := NewDetector(nil).Detect(geom.DrawingData{}, 0)
	assert.Empty(t, a.Segments)
	assert.Nil(t, a.ThicknessPts)
	assert.Nil(t, a.OuterBoundary)
	assert.Zero(t, a.EnclosedAreaPts)
}
