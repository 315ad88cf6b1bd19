package scale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftscale/takeoff/internal/geom"
)

func TestParseNotation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		text       string
		wantFactor float64
		wantConf   Confidence
	}{
		{"quarter inch", `1/4" = 1'-0"`, 48, ConfidenceHigh},
		{"eighth inch", `SCALE: 1/8" = 1'-0"`, 96, ConfidenceHigh},
		{"three sixteenths", `3/16" = 1'-0"`, 64, ConfidenceHigh},
		{"half inch", `1/2" = 1'-0"`, 24, ConfidenceHigh},
		{"one and a half inch", `1 1/2" = 1'-0"`, 8, ConfidenceHigh},
		{"engineering", `1" = 10'`, 120, ConfidenceHigh},
		{"engineering forty", `1" = 40'`, 480, ConfidenceHigh},
		{"unicode quotes", "1/4″ = 1′-0″", 48, ConfidenceHigh},
		{"metric", `1:100`, 100, ConfidenceMedium},
		{"fuzzy with scale keyword", `SCALE 1/4 = 1`, 48, ConfidenceMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNotation(tt.text)
			require.NotNil(t, got, "expected %q to parse", tt.text)
			assert.InDelta(t, tt.wantFactor, got.ScaleFactor, 1e-9)
			assert.Equal(t, tt.wantConf, got.Confidence)
			assert.Equal(t, MethodNotation, got.Method)
		})
	}

	t.Run("records both sides of the notation", func(t *testing.T) {
		tests := []struct {
			text              string
			drawingIn, realIn float64
		}{
			{`1/4" = 1'-0"`, 0.25, 12},
			{`1" = 10'`, 1, 120},
			{`1:100`, 1, 100},
		}
		for _, tt := range tests {
			got := ParseNotation(tt.text)
			require.NotNil(t, got)
			assert.InDelta(t, tt.drawingIn, got.DrawingUnits, 1e-9, tt.text)
			assert.InDelta(t, tt.realIn, got.RealUnits, 1e-9, tt.text)
			assert.InDelta(t, got.RealUnits/got.DrawingUnits, got.ScaleFactor, 1e-9, tt.text)
		}
	})

	t.Run("non-scale text does not parse", func(t *testing.T) {
		for _, text := range []string{"FLOOR PLAN", "NOT TO SCALE", "SHEET A-101", ""} {
			assert.Nil(t, ParseNotation(text), "%q should not parse", text)
		}
	})

	t.Run("bare ratio without scale keyword does not parse", func(t *testing.T) {
		assert.Nil(t, ParseNotation("3 = 1 DETAIL"))
	})
}

func TestDetectFromText(t *testing.T) {
	t.Parallel()
	d := NewDetector(nil)

	t.Run("prefers exact notation over fuzzy", func(t *testing.T) {
		texts := []geom.TextBlock{
			{Text: "SCALE 1/8 = 1"},
			{Text: `1/4" = 1'-0"`},
		}
		got := d.DetectFromText(texts)
		require.NotNil(t, got)
		assert.InDelta(t, 48.0, got.ScaleFactor, 1e-9)
		assert.Equal(t, ConfidenceHigh, got.Confidence)
	})

	t.Run("nothing parseable", func(t *testing.T) {
		assert.Nil(t, d.DetectFromText([]geom.TextBlock{{Text: "FLOOR PLAN"}}))
	})
}

func TestParseDimensionString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text       string
		wantInches float64
		wantOK     bool
	}{
		{`24'-6"`, 294, true},
		{`10'-0"`, 120, true},
		{`6' 6"`, 78, true},
		{`12'`, 144, true},
		{`3'-4 1/2"`, 40.5, true},
		{`FLOOR PLAN`, 0, false},
		{``, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseDimensionString(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.wantInches, got, 1e-9)
			}
		})
	}
}

func TestDetectFromDimensions(t *testing.T) {
	t.Parallel()
	d := NewDetector(nil)

	line := geom.VectorPath{
		PathType: geom.PathLine,
		Points:   []geom.Point2D{{X: 0, Y: 0}, {X: 144, Y: 0}},
	}
	data := geom.DrawingData{Paths: []geom.VectorPath{line}}

	t.Run("snaps to the nearest standard scale", func(t *testing.T) {
		// a 2 paper-inch line annotated 8'-0" implies factor 48
		texts := []geom.TextBlock{{Text: `8'-0"`, Position: geom.Point2D{X: 72, Y: 10}}}
		got := d.DetectFromDimensions(texts, data)
		require.NotNil(t, got)
		assert.InDelta(t, 48.0, got.ScaleFactor, 1e-9)
		assert.Equal(t, ConfidenceMedium, got.Confidence)
		assert.Equal(t, MethodDimension, got.Method)
	})

	t.Run("text beyond the radius is ignored", func(t *testing.T) {
		texts := []geom.TextBlock{{Text: `8'-0"`, Position: geom.Point2D{X: 72, Y: 400}}}
		assert.Nil(t, d.DetectFromDimensions(texts, data))
	})

	t.Run("no dimension texts", func(t *testing.T) {
		texts := []geom.TextBlock{{Text: "KITCHEN", Position: geom.Point2D{X: 72, Y: 10}}}
		assert.Nil(t, d.DetectFromDimensions(texts, data))
	})
}

func TestDetect(t *testing.T) {
	t.Parallel()
	d := NewDetector(nil)

	t.Run("notation wins over dimensions", func(t *testing.T) {
		data := geom.DrawingData{Paths: []geom.VectorPath{{
			PathType: geom.PathLine,
			Points:   []geom.Point2D{{X: 0, Y: 0}, {X: 144, Y: 0}},
		}}}
		texts := []geom.TextBlock{
			{Text: `1/8" = 1'-0"`},
			{Text: `8'-0"`, Position: geom.Point2D{X: 72, Y: 10}},
		}
		got := d.Detect(texts, data)
		require.NotNil(t, got)
		assert.InDelta(t, 96.0, got.ScaleFactor, 1e-9)
		assert.Equal(t, MethodNotation, got.Method)
	})

	t.Run("empty sheet yields nothing", func(t *testing.T) {
		assert.Nil(t, d.Detect(nil, geom.DrawingData{}))
	})
}
