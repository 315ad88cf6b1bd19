// Package scale determines the drawing scale of an architectural sheet.
// The scale factor is the ratio of real inches to paper inches: 48 means
// 1/4" on paper is one real foot. Detection tries the sheet's scale
// notation text first, then falls back to correlating dimension strings
// with measured line lengths.
package scale

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/draftscale/takeoff/internal/config"
	"github.com/draftscale/takeoff/internal/geom"
	"github.com/draftscale/takeoff/internal/monitoring"
)

// Confidence grades how trustworthy a detected scale is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Detection methods recorded on a Result.
const (
	MethodNotation     = "notation"
	MethodDimension    = "dimension"
	MethodPageEstimate = "page_estimate"
	MethodExternal     = "external"
)

// Result is a detected drawing scale. DrawingUnits and RealUnits are
// the two sides of the notation in inches; ScaleFactor is always their
// ratio RealUnits/DrawingUnits.
type Result struct {
	DrawingUnits float64    `json:"drawing_units,omitempty"`
	RealUnits    float64    `json:"real_units,omitempty"`
	ScaleFactor  float64    `json:"scale_factor"`
	Notation     string     `json:"notation"`
	Confidence   Confidence `json:"confidence"`
	Method       string     `json:"method"`
}

// fractionValues maps the fractional inch prefixes of architectural
// scale notations to their decimal values.
var fractionValues = map[string]float64{
	"1/8":   0.125,
	"3/16":  0.1875,
	"1/4":   0.25,
	"3/8":   0.375,
	"1/2":   0.5,
	"3/4":   0.75,
	"1":     1.0,
	"1 1/2": 1.5,
	"3":     3.0,
}

// standardFactors lists the factors of common architectural scales, used
// to snap dimension-inferred factors onto a drafting convention.
var standardFactors = []struct {
	Factor   float64
	Notation string
}{
	{4, `3" = 1'-0"`},
	{8, `1 1/2" = 1'-0"`},
	{12, `1" = 1'-0"`},
	{16, `3/4" = 1'-0"`},
	{24, `1/2" = 1'-0"`},
	{32, `3/8" = 1'-0"`},
	{48, `1/4" = 1'-0"`},
	{64, `3/16" = 1'-0"`},
	{96, `1/8" = 1'-0"`},
	{120, `1" = 10'`},
	{240, `1" = 20'`},
	{360, `1" = 30'`},
	{480, `1" = 40'`},
	{600, `1" = 50'`},
}

var (
	// 1/4" = 1'-0" with explicit inch and foot marks.
	archExactRe = regexp.MustCompile(`(\d+\s+\d+/\d+|\d+/\d+|\d+)\s*"\s*=\s*(\d+)\s*'(?:\s*-?\s*(\d+)\s*")?`)
	// Same grammar without the unit marks: "SCALE 1/4 = 1".
	archFuzzyRe = regexp.MustCompile(`(\d+\s+\d+/\d+|\d+/\d+|\d+)\s*=\s*(\d+)(?:\s*-\s*(\d+))?`)
	// Engineering: 1" = 10'.
	engExactRe = regexp.MustCompile(`(\d+)\s*"\s*=\s*(\d+)\s*'`)
	// Metric ratio: 1:100.
	metricRe = regexp.MustCompile(`1\s*:\s*(\d{1,4})\b`)
	// 24'-6", 10', 6' 6", with optional fractional inches.
	dimensionRe = regexp.MustCompile(`(\d+)\s*'\s*-?\s*(?:(\d+(?:\s+\d+/\d+)?|\d+/\d+)\s*")?`)
)

// normalizeQuotes replaces the unicode quote variants PDF text commonly
// carries with ASCII marks.
func normalizeQuotes(s string) string {
	r := strings.NewReplacer(
		"‘", "'", "’", "'", "′", "'",
		"“", `"`, "”", `"`, "″", `"`,
	)
	return r.Replace(s)
}

// Detector extracts drawing scales from sheet text.
type Detector struct {
	cfg *config.TuningConfig
}

// NewDetector returns a Detector using cfg thresholds.
func NewDetector(cfg *config.TuningConfig) *Detector {
	if cfg == nil {
		cfg = &config.TuningConfig{}
	}
	return &Detector{cfg: cfg}
}

// DetectFromText scans the sheet's text blocks for a scale notation and
// returns the first parseable match, or nil when none parses. Exact
// notations with inch and foot marks are HIGH confidence; mark-less
// variants parse at MEDIUM.
func (d *Detector) DetectFromText(texts []geom.TextBlock) *Result {
	var fuzzy *Result
	for _, t := range texts {
		r := ParseNotation(t.Text)
		if r == nil {
			continue
		}
		if r.Confidence == ConfidenceHigh {
			return r
		}
		if fuzzy == nil {
			fuzzy = r
		}
	}
	return fuzzy
}

// ParseNotation parses a single scale notation string. Returns nil when
// the string contains no recognizable scale.
func ParseNotation(text string) *Result {
	s := normalizeQuotes(text)

	if m := archExactRe.FindStringSubmatch(s); m != nil {
		if r := archFromParts(m[1], m[2], m[3]); r != nil {
			r.Confidence = ConfidenceHigh
			return r
		}
	}
	if m := engExactRe.FindStringSubmatch(s); m != nil {
		paperIn, err1 := strconv.ParseFloat(m[1], 64)
		feet, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil && paperIn > 0 && feet > 0 {
			return &Result{
				DrawingUnits: paperIn,
				RealUnits:    feet * 12.0,
				ScaleFactor:  feet * 12.0 / paperIn,
				Notation:     m[0],
				Confidence:   ConfidenceHigh,
				Method:       MethodNotation,
			}
		}
	}
	if m := metricRe.FindStringSubmatch(s); m != nil {
		ratio, err := strconv.ParseFloat(m[1], 64)
		if err == nil && ratio > 1 {
			return &Result{
				DrawingUnits: 1,
				RealUnits:    ratio,
				ScaleFactor:  ratio,
				Notation:     "1:" + m[1],
				Confidence:   ConfidenceMedium,
				Method:       MethodNotation,
			}
		}
	}
	// Only trust the mark-less grammar on lines that announce a scale,
	// otherwise any "3 = 1" fragment would match.
	if strings.Contains(strings.ToUpper(s), "SCALE") {
		if m := archFuzzyRe.FindStringSubmatch(s); m != nil {
			if r := archFromParts(m[1], m[2], m[3]); r != nil {
				r.Confidence = ConfidenceMedium
				return r
			}
		}
	}
	return nil
}

func archFromParts(inchPart, feetPart, inchRemPart string) *Result {
	inchPart = strings.Join(strings.Fields(inchPart), " ")
	paperIn, ok := fractionValues[inchPart]
	if !ok {
		v, err := strconv.ParseFloat(inchPart, 64)
		if err != nil || v <= 0 {
			return nil
		}
		paperIn = v
	}
	feet, err := strconv.ParseFloat(feetPart, 64)
	if err != nil || feet <= 0 {
		return nil
	}
	realIn := feet * 12.0
	if inchRemPart != "" {
		rem, err := strconv.ParseFloat(inchRemPart, 64)
		if err != nil {
			return nil
		}
		realIn += rem
	}
	if paperIn <= 0 || realIn <= 0 {
		return nil
	}
	notation := inchPart + `" = ` + feetPart + `'`
	if inchRemPart != "" {
		notation += "-" + inchRemPart + `"`
	} else {
		notation += `-0"`
	}
	return &Result{
		DrawingUnits: paperIn,
		RealUnits:    realIn,
		ScaleFactor:  realIn / paperIn,
		Notation:     notation,
		Method:       MethodNotation,
	}
}

// ParseDimensionString parses an architectural dimension such as
// 24'-6" into total real inches. Returns false when the string holds no
// dimension.
func ParseDimensionString(text string) (float64, bool) {
	s := normalizeQuotes(text)
	m := dimensionRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	feet, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	inches := 0.0
	if m[2] != "" {
		inches, err = parseInchPart(m[2])
		if err != nil {
			return 0, false
		}
	}
	total := feet*12.0 + inches
	if total <= 0 {
		return 0, false
	}
	return total, true
}

func parseInchPart(s string) (float64, error) {
	fields := strings.Fields(s)
	total := 0.0
	for _, f := range fields {
		if num, den, found := strings.Cut(f, "/"); found {
			n, err1 := strconv.ParseFloat(num, 64)
			d, err2 := strconv.ParseFloat(den, 64)
			if err1 != nil || err2 != nil || d == 0 {
				return 0, strconv.ErrSyntax
			}
			total += n / d
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// DetectFromDimensions infers the scale by matching dimension strings to
// the measured lines they annotate. A dimension text counts for a line
// when it sits within the configured radius of the line's midpoint; the
// closest pairing wins. Inferred factors snap to the nearest standard
// architectural scale when within 10%. The result is never better than
// MEDIUM: a dimension may annotate a different line than the nearest
// one.
func (d *Detector) DetectFromDimensions(texts []geom.TextBlock, data geom.DrawingData) *Result {
	radius := d.cfg.GetDimensionTextRadiusPts()

	type candidate struct {
		factor float64
		dist   float64
	}
	var best *candidate
	for _, p := range data.Paths {
		if p.PathType != geom.PathLine || len(p.Points) != 2 {
			continue
		}
		lengthPts := p.Points[0].Distance(p.Points[1])
		if lengthPts < 1.0 {
			continue
		}
		mid := geom.Point2D{
			X: (p.Points[0].X + p.Points[1].X) / 2,
			Y: (p.Points[0].Y + p.Points[1].Y) / 2,
		}
		for _, t := range texts {
			realIn, ok := ParseDimensionString(t.Text)
			if !ok {
				continue
			}
			dist := t.Position.Distance(mid)
			if dist > radius {
				continue
			}
			paperIn := lengthPts / geom.PointsPerInch
			factor := realIn / paperIn
			if best == nil || dist < best.dist {
				best = &candidate{factor: factor, dist: dist}
			}
		}
	}
	if best == nil {
		return nil
	}

	factor, notation := snapToStandard(best.factor)
	monitoring.Logf("scale: inferred factor %.1f from dimension text (snapped to %q)", best.factor, notation)
	return &Result{
		DrawingUnits: 1,
		RealUnits:    factor,
		ScaleFactor:  factor,
		Notation:     notation,
		Confidence:   ConfidenceMedium,
		Method:       MethodDimension,
	}
}

func snapToStandard(factor float64) (float64, string) {
	for _, std := range standardFactors {
		if math.Abs(factor-std.Factor)/std.Factor <= 0.10 {
			return std.Factor, std.Notation
		}
	}
	return factor, "inferred (" + strconv.FormatFloat(factor, 'f', 1, 64) + "x)"
}

// Detect runs notation detection, then dimension inference. Nil when
// neither succeeds; callers fall back to a page-size estimate.
func (d *Detector) Detect(texts []geom.TextBlock, data geom.DrawingData) *Result {
	if r := d.DetectFromText(texts); r != nil {
		return r
	}
	return d.DetectFromDimensions(texts, data)
}
