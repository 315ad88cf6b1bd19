package debugviz

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftscale/takeoff/internal/geom"
	"github.com/draftscale/takeoff/internal/rooms"
	"github.com/draftscale/takeoff/internal/walls"
)

func TestRenderRoomsHTML(t *testing.T) {
	ra := &rooms.Analysis{
		PolygonizeSuccess: true,
		Rooms: []rooms.DetectedRoom{{
			Index: 0,
			Label: "LIVING ROOM",
			Polygon: []geom.Point2D{
				{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}, {X: 0, Y: 50},
			},
		}},
	}
	wa := &walls.Analysis{Segments: []walls.Segment{{
		Start: geom.Point2D{X: 0, Y: 0}, End: geom.Point2D{X: 100, Y: 0},
		Orientation: walls.Horizontal, LengthPts: 100, StrokePts: 1.5,
	}}}

	var buf bytes.Buffer
	require.NoError(t, RenderRoomsHTML(&buf, ra, wa, "A-101"))

	html := buf.String()
	assert.Contains(t, html, "Room Detection")
	assert.Contains(t, html, "page=A-101 rooms=1 walls=1")

	t.Run("nil analyses still render", func(t *testing.T) {
		var empty bytes.Buffer
		require.NoError(t, RenderRoomsHTML(&empty, nil, nil, ""))
		assert.Contains(t, empty.String(), "rooms=0 walls=0")
	})
}
