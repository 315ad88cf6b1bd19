// Package config carries the tuning parameters for the measurement
// pipeline's heuristics. Every threshold the detectors use lives here so
// heuristics are tunable per scenario without touching detection logic.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig is the root configuration for detection heuristics.
// Fields omitted from the JSON file retain their defaults, so partial
// configs are safe.
type TuningConfig struct {
	// Wall detector params
	MinWallWidthPts   *float64 `json:"min_wall_width_pts,omitempty"`
	MinWallLengthPts  *float64 `json:"min_wall_length_pts,omitempty"`
	AngleToleranceDeg *float64 `json:"angle_tolerance_deg,omitempty"`
	MaxDarkColorSum   *float64 `json:"max_dark_color_sum,omitempty"`
	OutlierIQRFactor  *float64 `json:"outlier_iqr_factor,omitempty"`
	PairMinGapPts     *float64 `json:"pair_min_gap_pts,omitempty"`
	PairMaxGapPts     *float64 `json:"pair_max_gap_pts,omitempty"`

	// Snap params
	SnapTolerancePts *float64 `json:"snap_tolerance_pts,omitempty"`

	// Room polygonizer params
	SegmentExtensionPts *float64 `json:"segment_extension_pts,omitempty"`
	MinRoomAreaPts      *float64 `json:"min_room_area_pts,omitempty"`
	MaxPageAreaFraction *float64 `json:"max_page_area_fraction,omitempty"`
	UseCenterlines      *bool    `json:"use_centerlines,omitempty"`
	CenterlineMinGapPts *float64 `json:"centerline_min_gap_pts,omitempty"`
	CenterlineMaxGapPts *float64 `json:"centerline_max_gap_pts,omitempty"`
	DoorwayGapPts       *float64 `json:"doorway_gap_pts,omitempty"`

	// Labeler params
	LabelSearchRadiusPts *float64 `json:"label_search_radius_pts,omitempty"`

	// Scale params
	DimensionTextRadiusPts *float64 `json:"dimension_text_radius_pts,omitempty"`
	VerifierTimeout        *string  `json:"verifier_timeout,omitempty"` // duration string like "30s"

	// Measurement params
	SheetCoverageFraction *float64 `json:"sheet_coverage_fraction,omitempty"`
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.SnapTolerancePts != nil && *c.SnapTolerancePts < 0 {
		return fmt.Errorf("snap_tolerance_pts must be non-negative, got %f", *c.SnapTolerancePts)
	}
	if c.MaxPageAreaFraction != nil {
		if *c.MaxPageAreaFraction <= 0 || *c.MaxPageAreaFraction > 1 {
			return fmt.Errorf("max_page_area_fraction must be in (0, 1], got %f", *c.MaxPageAreaFraction)
		}
	}
	if c.PairMinGapPts != nil && c.PairMaxGapPts != nil && *c.PairMinGapPts > *c.PairMaxGapPts {
		return fmt.Errorf("pair_min_gap_pts %f exceeds pair_max_gap_pts %f", *c.PairMinGapPts, *c.PairMaxGapPts)
	}
	if c.VerifierTimeout != nil && *c.VerifierTimeout != "" {
		if _, err := time.ParseDuration(*c.VerifierTimeout); err != nil {
			return fmt.Errorf("invalid verifier_timeout '%s': %w", *c.VerifierTimeout, err)
		}
	}
	if c.SheetCoverageFraction != nil {
		if *c.SheetCoverageFraction <= 0 || *c.SheetCoverageFraction > 1 {
			return fmt.Errorf("sheet_coverage_fraction must be in (0, 1], got %f", *c.SheetCoverageFraction)
		}
	}
	return nil
}

// GetMinWallWidthPts returns the minimum stroke width for wall
// candidates. 1.0 pt is roughly the 0.5mm pen weight walls are drawn
// with; annotation lines run around 0.13mm.
func (c *TuningConfig) GetMinWallWidthPts() float64 {
	if c.MinWallWidthPts == nil {
		return 1.0
	}
	return *c.MinWallWidthPts
}

// GetMinWallLengthPts returns the minimum candidate segment length.
// 36 pts is half a paper inch: excludes dimension ticks and symbols.
func (c *TuningConfig) GetMinWallLengthPts() float64 {
	if c.MinWallLengthPts == nil {
		return 36.0
	}
	return *c.MinWallLengthPts
}

// GetAngleToleranceDeg returns the H/V classification tolerance.
func (c *TuningConfig) GetAngleToleranceDeg() float64 {
	if c.AngleToleranceDeg == nil {
		return 2.0
	}
	return *c.AngleToleranceDeg
}

// GetMaxDarkColorSum returns the maximum R+G+B sum still counted as a
// structural (black or dark grey) stroke colour.
func (c *TuningConfig) GetMaxDarkColorSum() float64 {
	if c.MaxDarkColorSum == nil {
		return 1.0
	}
	return *c.MaxDarkColorSum
}

// GetOutlierIQRFactor returns the IQR multiplier for dropping overlong
// candidate lines (title-block borders).
func (c *TuningConfig) GetOutlierIQRFactor() float64 {
	if c.OutlierIQRFactor == nil {
		return 3.0
	}
	return *c.OutlierIQRFactor
}

// GetPairMinGapPts returns the lower bound of the wall-thickness band.
func (c *TuningConfig) GetPairMinGapPts() float64 {
	if c.PairMinGapPts == nil {
		return 2.0
	}
	return *c.PairMinGapPts
}

// GetPairMaxGapPts returns the upper bound of the wall-thickness band.
func (c *TuningConfig) GetPairMaxGapPts() float64 {
	if c.PairMaxGapPts == nil {
		return 20.0
	}
	return *c.PairMaxGapPts
}

// GetSnapTolerancePts returns the endpoint snap tolerance.
func (c *TuningConfig) GetSnapTolerancePts() float64 {
	if c.SnapTolerancePts == nil {
		return 3.0
	}
	return *c.SnapTolerancePts
}

// GetSegmentExtensionPts returns the extension added at each segment
// end before polygonizing, bridging near-T-junctions.
func (c *TuningConfig) GetSegmentExtensionPts() float64 {
	if c.SegmentExtensionPts == nil {
		return 1.0
	}
	return *c.SegmentExtensionPts
}

// GetMinRoomAreaPts returns the minimum polygon area kept as a room.
func (c *TuningConfig) GetMinRoomAreaPts() float64 {
	if c.MinRoomAreaPts == nil {
		return 100.0
	}
	return *c.MinRoomAreaPts
}

// GetMaxPageAreaFraction returns the page-area fraction above which a
// polygon is treated as the sheet boundary, not a room.
func (c *TuningConfig) GetMaxPageAreaFraction() float64 {
	if c.MaxPageAreaFraction == nil {
		return 0.80
	}
	return *c.MaxPageAreaFraction
}

// GetUseCenterlines reports whether parallel wall pairs are collapsed
// to centerlines before polygonizing.
func (c *TuningConfig) GetUseCenterlines() bool {
	if c.UseCenterlines == nil {
		return false
	}
	return *c.UseCenterlines
}

// GetCenterlineMinGapPts returns the minimum pair gap for centerlines.
func (c *TuningConfig) GetCenterlineMinGapPts() float64 {
	if c.CenterlineMinGapPts == nil {
		return 4.0
	}
	return *c.CenterlineMinGapPts
}

// GetCenterlineMaxGapPts returns the maximum pair gap for centerlines.
func (c *TuningConfig) GetCenterlineMaxGapPts() float64 {
	if c.CenterlineMaxGapPts == nil {
		return 18.0
	}
	return *c.CenterlineMaxGapPts
}

// GetDoorwayGapPts returns the maximum collinear gap bridged between
// centerlines. 60 pts is about 3.3 real feet at 1/4"=1'-0".
func (c *TuningConfig) GetDoorwayGapPts() float64 {
	if c.DoorwayGapPts == nil {
		return 60.0
	}
	return *c.DoorwayGapPts
}

// GetLabelSearchRadiusPts returns the nearest-centroid search radius
// for labels that fall outside every room polygon.
func (c *TuningConfig) GetLabelSearchRadiusPts() float64 {
	if c.LabelSearchRadiusPts == nil {
		return 50.0
	}
	return *c.LabelSearchRadiusPts
}

// GetDimensionTextRadiusPts returns how far a dimension text may sit
// from a line midpoint and still be correlated with it.
func (c *TuningConfig) GetDimensionTextRadiusPts() float64 {
	if c.DimensionTextRadiusPts == nil {
		return 50.0
	}
	return *c.DimensionTextRadiusPts
}

// GetVerifierTimeout returns the hard deadline for the external scale
// verification call.
func (c *TuningConfig) GetVerifierTimeout() time.Duration {
	if c.VerifierTimeout == nil || *c.VerifierTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(*c.VerifierTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetSheetCoverageFraction returns the assumed drawn fraction of a
// standard sheet, used only by the page-size area guess.
func (c *TuningConfig) GetSheetCoverageFraction() float64 {
	if c.SheetCoverageFraction == nil {
		return 0.4
	}
	return *c.SheetCoverageFraction
}
