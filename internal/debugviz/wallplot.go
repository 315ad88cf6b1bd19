package debugviz

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/draftscale/takeoff/internal/walls"
)

// SaveWallPlot writes a PNG of the detected wall segments and the outer
// boundary hull to path. Y grows downward in page coordinates, so the
// plot flips Y to read like the sheet.
func SaveWallPlot(path string, wa *walls.Analysis) error {
	if wa == nil {
		return fmt.Errorf("no wall analysis to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Wall Segments (%d)", len(wa.Segments))
	p.X.Label.Text = "X (pts)"
	p.Y.Label.Text = "Y (pts)"

	for _, s := range wa.Segments {
		line, err := plotter.NewLine(plotter.XYs{
			{X: s.Start.X, Y: -s.Start.Y},
			{X: s.End.X, Y: -s.End.Y},
		})
		if err != nil {
			return fmt.Errorf("build wall line: %w", err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = color.RGBA{R: 40, G: 40, B: 40, A: 255}
		p.Add(line)
	}

	if len(wa.OuterBoundary) >= 3 {
		pts := make(plotter.XYs, 0, len(wa.OuterBoundary)+1)
		for _, v := range wa.OuterBoundary {
			pts = append(pts, plotter.XY{X: v.X, Y: -v.Y})
		}
		pts = append(pts, pts[0])
		hull, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("build hull line: %w", err)
		}
		hull.LineStyle.Width = vg.Points(0.75)
		hull.LineStyle.Color = color.RGBA{R: 200, G: 60, B: 60, A: 255}
		hull.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(hull)
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save wall plot: %w", err)
	}
	return nil
}
