// Package measure orchestrates the measurement pipeline for a sheet:
// vector extraction, scale detection and verification, wall detection,
// room polygonization and unit conversion. The output is the gross
// floor area and wall length with an explicit confidence grade and the
// provenance of both the area and the scale.
package measure

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/draftscale/takeoff/internal/config"
	"github.com/draftscale/takeoff/internal/extract"
	"github.com/draftscale/takeoff/internal/geom"
	"github.com/draftscale/takeoff/internal/monitoring"
	"github.com/draftscale/takeoff/internal/rooms"
	"github.com/draftscale/takeoff/internal/scale"
	"github.com/draftscale/takeoff/internal/spaces"
	"github.com/draftscale/takeoff/internal/units"
	"github.com/draftscale/takeoff/internal/walls"
)

// Area sources, in decreasing order of trust.
const (
	AreaFromRooms        = "polygonized_rooms"
	AreaFromHull         = "convex_hull"
	AreaFromPageEstimate = "page_size_estimate"
	AreaNone             = "none"
)

// assumedScaleFactor is used when no scale can be detected; 1/8"=1'-0"
// is the most common floor plan scale on standard sheets.
const assumedScaleFactor = 96.0

const assumedScaleNotation = `estimated (1/8"=1'-0")`

// standardSheets are the common architectural sheet sizes in inches.
var standardSheets = [][2]float64{
	{18, 24},
	{24, 36},
	{30, 42},
	{36, 48},
}

const sheetMatchToleranceIn = 0.5

// Measurement is the measured result for one sheet.
type Measurement struct {
	PageLabel           string                   `json:"page_label,omitempty"`
	Scale               *scale.Result            `json:"scale,omitempty"`
	ScaleSource         scale.VerificationSource `json:"scale_source"`
	GrossAreaSF         float64                  `json:"gross_area_sf"`
	WallLengthLF        float64                  `json:"wall_length_lf"`
	BuildingPerimeterLF float64                  `json:"building_perimeter_lf"`
	WallCount           int                      `json:"wall_count"`
	RoomCount           int                      `json:"room_count"`
	AreaSource          string                   `json:"area_source"`
	Confidence          spaces.Confidence        `json:"confidence"`
	Walls               *walls.Analysis          `json:"walls,omitempty"`
	Rooms               *rooms.Analysis          `json:"rooms,omitempty"`
	Warnings            []string                 `json:"warnings,omitempty"`
}

// Service runs the measurement pipeline.
type Service struct {
	cfg       *config.TuningConfig
	extractor *extract.Extractor
	scales    *scale.Detector
	verifier  *scale.Verifier
	walls     *walls.Detector
	rooms     *rooms.Detector
}

// NewService builds a Service. interp may be nil; scale verification
// then reports UNVERIFIED and measurement proceeds deterministically.
func NewService(cfg *config.TuningConfig, interp scale.Interpreter) *Service {
	if cfg == nil {
		cfg = &config.TuningConfig{}
	}
	return &Service{
		cfg:       cfg,
		extractor: extract.NewExtractor(),
		scales:    scale.NewDetector(cfg),
		verifier:  scale.NewVerifier(interp, cfg),
		walls:     walls.NewDetector(cfg),
		rooms:     rooms.NewDetector(cfg),
	}
}

// Measure runs the full pipeline on one page.
func (s *Service) Measure(ctx context.Context, page extract.Page) (*Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := s.extractor.Extract(page)

	detected := s.scales.Detect(page.TextBlocks, data)
	verified := s.verifier.Verify(ctx, detected, scale.Query{
		PageLabel:  page.Label,
		TextBlocks: page.TextBlocks,
	})

	m := &Measurement{
		PageLabel:   page.Label,
		Scale:       verified.Result,
		ScaleSource: verified.Source,
		AreaSource:  AreaNone,
		Confidence:  spaces.ConfidenceNone,
		Warnings:    verified.Warnings,
	}

	scaleFactor, scaleTier := s.resolveScale(m, verified, data)

	wallAnalysis := s.walls.Detect(data, scaleFactor)
	m.Walls = &wallAnalysis
	m.WallCount = len(wallAnalysis.Segments)
	m.WallLengthLF = totalWallLF(wallAnalysis.Segments, scaleFactor)

	areaSF, source, areaTier := s.measureArea(m, wallAnalysis, data, page, scaleFactor)
	m.GrossAreaSF = areaSF
	m.AreaSource = source
	m.Confidence = minConfidence(areaTier, scaleTier)
	if m.Rooms != nil {
		m.RoomCount = len(m.Rooms.Rooms)
	}
	m.BuildingPerimeterLF = buildingPerimeterLF(m, wallAnalysis, scaleFactor)

	monitoring.Logf("measure: page %q gross %.0f SF (%s, %s), walls %.0f LF, perimeter %.0f LF",
		page.Label, m.GrossAreaSF, m.AreaSource, m.Confidence, m.WallLengthLF, m.BuildingPerimeterLF)
	return m, nil
}

// buildingPerimeterLF measures the building outline: the polygonized
// outer boundary when rooms closed, else the wall convex hull.
func buildingPerimeterLF(m *Measurement, wallAnalysis walls.Analysis, scaleFactor float64) float64 {
	boundary := wallAnalysis.OuterBoundary
	if m.Rooms != nil && len(m.Rooms.OuterBoundary) >= 3 {
		boundary = m.Rooms.OuterBoundary
	}
	if len(boundary) < 3 {
		return 0
	}
	return units.PtsToRealLF(geom.PolygonPerimeter(boundary), scaleFactor)
}

// resolveScale picks the working scale factor and its confidence tier.
// An undetectable scale falls back to the assumed 1/8" factor with a
// warning; a disputed scale is capped at MEDIUM.
func (s *Service) resolveScale(m *Measurement, verified *scale.Verified, data geom.DrawingData) (float64, spaces.Confidence) {
	if verified.Result == nil || verified.Result.ScaleFactor <= 0 {
		m.Scale = &scale.Result{
			DrawingUnits: 0.125,
			RealUnits:    12,
			ScaleFactor:  assumedScaleFactor,
			Notation:     assumedScaleNotation,
			Confidence:   scale.ConfidenceMedium,
			Method:       scale.MethodPageEstimate,
		}
		m.Warnings = append(m.Warnings, "no drawing scale detected, measurements assume "+assumedScaleNotation)
		return assumedScaleFactor, spaces.ConfidenceMedium
	}

	tier := confidenceTier(verified.Result.Confidence)
	if verified.Downgraded && tier == spaces.ConfidenceHigh {
		tier = spaces.ConfidenceMedium
	}
	return verified.Result.ScaleFactor, tier
}

// measureArea tries the area strategies in order of trust and returns
// the first that produces a value.
func (s *Service) measureArea(m *Measurement, wallAnalysis walls.Analysis, data geom.DrawingData, page extract.Page, scaleFactor float64) (float64, string, spaces.Confidence) {
	// polygonized rooms
	if len(wallAnalysis.Segments) > 0 {
		sf := scaleFactor
		ra := s.rooms.Detect(wallAnalysis.Segments, page.TextBlocks, &sf, data.PageAreaPts())
		m.Rooms = &ra
		if ra.PolygonizeSuccess && ra.TotalAreaPts > 0 {
			return units.PtsToRealSF(ra.TotalAreaPts, scaleFactor), AreaFromRooms, spaces.ConfidenceHigh
		}
	}

	// convex hull of the walls
	if wallAnalysis.EnclosedAreaPts > 0 {
		return units.PtsToRealSF(wallAnalysis.EnclosedAreaPts, scaleFactor), AreaFromHull, spaces.ConfidenceMedium
	}

	// page-size guess for sheets with no usable vectors at all
	if len(data.Paths) == 0 {
		if w, h, ok := matchStandardSheet(page.PageWidthPts, page.PageHeightPts); ok {
			coverage := s.cfg.GetSheetCoverageFraction()
			drawnSqIn := w * h * coverage
			areaSF := drawnSqIn * assumedScaleFactor * assumedScaleFactor / 144.0
			m.Warnings = append(m.Warnings,
				fmt.Sprintf("no vector content, area guessed from the %gx%g sheet size", w, h))
			return areaSF, AreaFromPageEstimate, spaces.ConfidenceLow
		}
	}

	return 0, AreaNone, spaces.ConfidenceNone
}

func matchStandardSheet(widthPts, heightPts float64) (w, h float64, ok bool) {
	wIn := widthPts / geom.PointsPerInch
	hIn := heightPts / geom.PointsPerInch
	for _, sheet := range standardSheets {
		if (near(wIn, sheet[0]) && near(hIn, sheet[1])) ||
			(near(wIn, sheet[1]) && near(hIn, sheet[0])) {
			return sheet[0], sheet[1], true
		}
	}
	return 0, 0, false
}

func near(v, target float64) bool {
	return math.Abs(v-target) <= sheetMatchToleranceIn
}

func totalWallLF(segs []walls.Segment, scaleFactor float64) float64 {
	totalPts := 0.0
	for _, s := range segs {
		totalPts += s.LengthPts
	}
	return units.PtsToRealLF(totalPts, scaleFactor)
}

func confidenceTier(c scale.Confidence) spaces.Confidence {
	switch c {
	case scale.ConfidenceHigh:
		return spaces.ConfidenceHigh
	case scale.ConfidenceMedium:
		return spaces.ConfidenceMedium
	default:
		return spaces.ConfidenceLow
	}
}

func minConfidence(a, b spaces.Confidence) spaces.Confidence {
	rank := map[spaces.Confidence]int{
		spaces.ConfidenceHigh:   4,
		spaces.ConfidenceMedium: 3,
		spaces.ConfidenceLow:    2,
		spaces.ConfidenceNone:   1,
	}
	if rank[a] == 0 {
		return b
	}
	if rank[b] == 0 || rank[a] < rank[b] {
		return a
	}
	return b
}

// MeasureAll measures pages concurrently, preserving input order in
// the result slice. The first error cancels the remaining work.
func (s *Service) MeasureAll(ctx context.Context, pages []extract.Page) ([]*Measurement, error) {
	results := make([]*Measurement, len(pages))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, page := range pages {
		g.Go(func() error {
			m, err := s.Measure(ctx, page)
			if err != nil {
				return fmt.Errorf("page %d: %w", i, err)
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
