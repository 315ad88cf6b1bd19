package measure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftscale/takeoff/internal/extract"
	"github.com/draftscale/takeoff/internal/geom"
	"github.com/draftscale/takeoff/internal/scale"
	"github.com/draftscale/takeoff/internal/spaces"
)

// planPage builds a 36x24 inch sheet carrying a 32x16 ft room drawn at
// 1/4"=1'-0": an 8x4 paper-inch rectangle of wall strokes.
func planPage() extract.Page {
	wall := func(x1, y1, x2, y2 float64) extract.RawItem {
		return extract.RawItem{Kind: extract.ItemLine, Points: []geom.Point2D{{X: x1, Y: y1}, {X: x2, Y: y2}}}
	}
	return extract.Page{
		Label:         "A-101",
		PageWidthPts:  36 * 72,
		PageHeightPts: 24 * 72,
		Drawings: []extract.RawDrawing{{
			LineWidth: 1.5,
			Items: []extract.RawItem{
				wall(100, 100, 676, 100),
				wall(676, 100, 676, 388),
				wall(676, 388, 100, 388),
				wall(100, 388, 100, 100),
			},
		}},
		TextBlocks: []geom.TextBlock{
			{Text: `SCALE: 1/4" = 1'-0"`, Position: geom.Point2D{X: 2000, Y: 1600}},
			{Text: "LIVING ROOM", Position: geom.Point2D{X: 388, Y: 244}},
		},
	}
}

func TestMeasure(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()

	t.Run("measured plan at quarter inch scale", func(t *testing.T) {
		m, err := svc.Measure(ctx, planPage())
		require.NoError(t, err)

		require.NotNil(t, m.Scale)
		assert.InDelta(t, 48.0, m.Scale.ScaleFactor, 1e-9)
		assert.InDelta(t, 0.25, m.Scale.DrawingUnits, 1e-9)
		assert.InDelta(t, 12.0, m.Scale.RealUnits, 1e-9)
		assert.Equal(t, scale.SourceUnverified, m.ScaleSource, "no interpreter is configured")

		assert.Equal(t, AreaFromRooms, m.AreaSource)
		assert.InDelta(t, 512.0, m.GrossAreaSF, 512*0.05, "32x16 ft room")
		assert.InDelta(t, 96.0, m.WallLengthLF, 96*0.05)
		assert.InDelta(t, 96.0, m.BuildingPerimeterLF, 96*0.05, "2*(32+16) ft outline")
		assert.Equal(t, 4, m.WallCount)
		assert.Equal(t, 1, m.RoomCount)
		assert.Equal(t, spaces.ConfidenceHigh, m.Confidence)

		require.NotNil(t, m.Rooms)
		require.Len(t, m.Rooms.Rooms, 1)
		assert.Equal(t, "LIVING ROOM", m.Rooms.Rooms[0].Label)
	})

	t.Run("missing scale assumes eighth inch with a warning", func(t *testing.T) {
		page := planPage()
		page.TextBlocks = nil
		m, err := svc.Measure(ctx, page)
		require.NoError(t, err)

		require.NotNil(t, m.Scale)
		assert.InDelta(t, 96.0, m.Scale.ScaleFactor, 1e-9)
		assert.Equal(t, scale.MethodPageEstimate, m.Scale.Method)
		assert.NotEmpty(t, m.Warnings)
		// same geometry at twice the scale factor quadruples the area
		assert.InDelta(t, 2048.0, m.GrossAreaSF, 2048*0.05)
		assert.Equal(t, spaces.ConfidenceMedium, m.Confidence, "assumed scale caps confidence")
	})

	t.Run("empty standard sheet falls back to a page estimate", func(t *testing.T) {
		page := extract.Page{PageWidthPts: 36 * 72, PageHeightPts: 24 * 72}
		m, err := svc.Measure(ctx, page)
		require.NoError(t, err)

		assert.Equal(t, AreaFromPageEstimate, m.AreaSource)
		assert.Equal(t, spaces.ConfidenceLow, m.Confidence)
		// 24x36 sheet at 40% coverage and 1/8" scale
		assert.InDelta(t, 24*36*0.4*96*96/144, m.GrossAreaSF, 1.0)
	})

	t.Run("empty non-standard page measures nothing", func(t *testing.T) {
		page := extract.Page{PageWidthPts: 500, PageHeightPts: 500}
		m, err := svc.Measure(ctx, page)
		require.NoError(t, err)
		assert.Equal(t, AreaNone, m.AreaSource)
		assert.Zero(t, m.GrossAreaSF)
		assert.Zero(t, m.BuildingPerimeterLF)
		assert.Zero(t, m.WallCount)
		assert.Zero(t, m.RoomCount)
		assert.Equal(t, spaces.ConfidenceNone, m.Confidence, "no vector data to measure")
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.Measure(cancelled, planPage())
		assert.Error(t, err)
	})
}

func TestMeasureAll(t *testing.T) {
	svc := NewService(nil, nil)

	pages := []extract.Page{planPage(), planPage(), planPage()}
	results, err := svc.MeasureAll(context.Background(), pages)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, m := range results {
		assert.InDelta(t, 512.0, m.GrossAreaSF, 512*0.05)
	}
}

func TestMinConfidence(t *testing.T) {
	tests := []struct {
		a, b, want spaces.Confidence
	}{
		{spaces.ConfidenceHigh, spaces.ConfidenceHigh, spaces.ConfidenceHigh},
		{spaces.ConfidenceHigh, spaces.ConfidenceMedium, spaces.ConfidenceMedium},
		{spaces.ConfidenceMedium, spaces.ConfidenceLow, spaces.ConfidenceLow},
		{spaces.ConfidenceLow, spaces.ConfidenceHigh, spaces.ConfidenceLow},
		{spaces.ConfidenceNone, spaces.ConfidenceHigh, spaces.ConfidenceNone},
		{spaces.ConfidenceNone, spaces.ConfidenceLow, spaces.ConfidenceNone},
		{spaces.ConfidenceMedium, spaces.ConfidenceNone, spaces.ConfidenceNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, minConfidence(tt.a, tt.b))
	}
}
