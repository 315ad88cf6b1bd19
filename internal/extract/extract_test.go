package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftscale/takeoff/internal/geom"
)

func pt(x, y float64) geom.Point2D { return geom.Point2D{X: x, Y: y} }

func samplePage() Page {
	return Page{
		Label:         "A-101",
		PageWidthPts:  2592,
		PageHeightPts: 1728,
		Drawings: []RawDrawing{
			{
				StrokeColor: &geom.Color{R: 0, G: 0, B: 0},
				LineWidth:   1.5,
				Items: []RawItem{
					{Kind: ItemLine, Points: []geom.Point2D{pt(0, 0), pt(100, 0)}},
					{Kind: ItemLine, Points: []geom.Point2D{pt(100, 0), pt(100, 50)}},
					{Kind: ItemRect, Rect: &geom.BoundingRect{X: 200, Y: 200, Width: 40, Height: 30}},
				},
			},
			{
				LineWidth: 0.5,
				Items: []RawItem{
					{Kind: ItemCurve, Points: []geom.Point2D{pt(0, 0), pt(10, 20), pt(20, 20), pt(30, 0)}},
					{Kind: ItemQuad, Points: []geom.Point2D{pt(300, 300), pt(340, 300), pt(340, 340), pt(300, 340)}},
				},
			},
		},
	}
}

func TestExtract(t *testing.T) {
	e := NewExtractor()

	t.Run("converts every item kind", func(t *testing.T) {
		data := e.Extract(samplePage())
		require.Len(t, data.Paths, 5)
		assert.Equal(t, geom.PathLine, data.Paths[0].PathType)
		assert.Equal(t, geom.PathRect, data.Paths[2].PathType)
		assert.Equal(t, geom.PathCurve, data.Paths[3].PathType)
		assert.Equal(t, geom.PathPolyline, data.Paths[4].PathType)
		assert.InDelta(t, 2592.0, data.PageWidthPts, 1e-9)
		assert.InDelta(t, 1728.0, data.PageHeightPts, 1e-9)
	})

	t.Run("drawing state rides on each path", func(t *testing.T) {
		data := e.Extract(samplePage())
		require.NotNil(t, data.Paths[0].StrokeColor)
		assert.InDelta(t, 1.5, data.Paths[0].LineWidth, 1e-9)
		assert.Nil(t, data.Paths[3].StrokeColor)
		assert.InDelta(t, 0.5, data.Paths[3].LineWidth, 1e-9)
	})

	t.Run("rect item expands to its corners", func(t *testing.T) {
		data := e.Extract(samplePage())
		rect := data.Paths[2]
		require.Len(t, rect.Points, 4)
		assert.InDelta(t, 200.0, rect.BoundingRect.X, 1e-9)
		assert.InDelta(t, 40.0, rect.BoundingRect.Width, 1e-9)
	})

	t.Run("malformed items are skipped", func(t *testing.T) {
		page := Page{Drawings: []RawDrawing{{Items: []RawItem{
			{Kind: ItemLine, Points: []geom.Point2D{pt(0, 0)}},
			{Kind: ItemCurve, Points: []geom.Point2D{pt(0, 0), pt(1, 1)}},
			{Kind: ItemRect},
			{Kind: "xx", Points: []geom.Point2D{pt(0, 0), pt(1, 1)}},
			{Kind: ItemLine, Points: []geom.Point2D{pt(0, 0), pt(5, 5)}},
		}}}}
		data := e.Extract(page)
		require.Len(t, data.Paths, 1, "only the well-formed line survives")
	})

	t.Run("empty page never fails", func(t *testing.T) {
		data := e.Extract(Page{PageWidthPts: 612, PageHeightPts: 792})
		assert.Empty(t, data.Paths)
		assert.InDelta(t, 612.0, data.PageWidthPts, 1e-9)
	})
}

func TestFilterByRegion(t *testing.T) {
	e := NewExtractor()
	data := e.Extract(samplePage())

	t.Run("keeps intersecting paths", func(t *testing.T) {
		got, err := e.FilterByRegion(data, geom.BoundingRect{X: 190, Y: 190, Width: 100, Height: 100})
		require.NoError(t, err)
		require.Len(t, got.Paths, 1)
		assert.Equal(t, geom.PathRect, got.Paths[0].PathType)
		assert.InDelta(t, data.PageWidthPts, got.PageWidthPts, 1e-9, "page dimensions are preserved")
	})

	t.Run("zero-area region is rejected", func(t *testing.T) {
		_, err := e.FilterByRegion(data, geom.BoundingRect{X: 10, Y: 10, Width: 0, Height: 50})
		assert.ErrorIs(t, err, ErrZeroAreaRegion)

		_, err = e.FilterByRegion(data, geom.BoundingRect{Width: 50, Height: -1})
		assert.ErrorIs(t, err, ErrZeroAreaRegion)
	})
}

func TestGetStats(t *testing.T) {
	e := NewExtractor()

	t.Run("counts by path type", func(t *testing.T) {
		s := e.GetStats(e.Extract(samplePage()))
		assert.Equal(t, 5, s.PathCount)
		assert.Equal(t, 2, s.LineCount)
		assert.Equal(t, 1, s.RectCount)
		assert.Equal(t, 1, s.CurveCount)
		assert.Equal(t, 1, s.PolylineCount)
		assert.InDelta(t, 150.0, s.TotalLineLengthPts, 1e-9)

		require.NotNil(t, s.BoundingBox)
		assert.InDelta(t, 0.0, s.BoundingBox.X, 1e-9)
		assert.InDelta(t, 340.0, s.BoundingBox.X+s.BoundingBox.Width, 1e-9)
		assert.InDelta(t, 340.0, s.BoundingBox.Y+s.BoundingBox.Height, 1e-9)
	})

	t.Run("empty data has no bounding box", func(t *testing.T) {
		s := e.GetStats(geom.DrawingData{})
		assert.Zero(t, s.PathCount)
		assert.Nil(t, s.BoundingBox)
	})
}
