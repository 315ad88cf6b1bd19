// Package debugviz renders detection results for visual inspection:
// an interactive room scatter (HTML) served by the debug endpoints and
// a wall segment plot (PNG) for offline runs. Neither output is part of
// the measurement contract.
package debugviz

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/draftscale/takeoff/internal/rooms"
	"github.com/draftscale/takeoff/internal/walls"
)

// RenderRoomsHTML writes an HTML scatter of the detected room polygons
// and wall endpoints. Points carry the room index in the third value so
// the visual map colors rooms apart.
func RenderRoomsHTML(w io.Writer, ra *rooms.Analysis, wa *walls.Analysis, pageLabel string) error {
	var roomData []opts.ScatterData
	maxIdx := 0.0
	if ra != nil {
		for _, room := range ra.Rooms {
			for _, p := range room.Polygon {
				roomData = append(roomData, opts.ScatterData{Value: []interface{}{p.X, p.Y, float64(room.Index)}})
			}
			if float64(room.Index) > maxIdx {
				maxIdx = float64(room.Index)
			}
		}
	}

	var wallData []opts.ScatterData
	if wa != nil {
		for _, s := range wa.Segments {
			wallData = append(wallData,
				opts.ScatterData{Value: []interface{}{s.Start.X, s.Start.Y, -1.0}},
				opts.ScatterData{Value: []interface{}{s.End.X, s.End.Y, -1.0}})
		}
	}

	subtitle := fmt.Sprintf("rooms=%d walls=%d", roomCount(ra), wallCount(wa))
	if pageLabel != "" {
		subtitle = "page=" + pageLabel + " " + subtitle
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Detected Rooms", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Room Detection", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (pts)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (pts)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        -1,
			Max:        float32(maxIdx),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#3e4989", "#26828e", "#35b779", "#b5de2b", "#fde725"}},
		}),
	)

	scatter.AddSeries("rooms", roomData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	scatter.AddSeries("walls", wallData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	return scatter.Render(w)
}

func roomCount(ra *rooms.Analysis) int {
	if ra == nil {
		return 0
	}
	return len(ra.Rooms)
}

func wallCount(wa *walls.Analysis) int {
	if wa == nil {
		return 0
	}
	return len(wa.Segments)
}
