// Package units provides the conversions between PDF page points and
// real-world quantities. Geometry is computed in points (72 pt = 1 paper
// inch) and converted with the drawing's scale factor, the ratio of real
// inches to paper inches (48 for 1/4"=1'-0").
package units

import "github.com/draftscale/takeoff/internal/geom"

// PointsPerInch is the PDF user-space resolution.
const PointsPerInch = geom.PointsPerInch

// PtsToRealSF converts an area in square PDF points to real-world
// square feet:
//
//	area_sf = area_pts * (1/72)^2 * scale_factor^2 / 144
func PtsToRealSF(areaPts, scaleFactor float64) float64 {
	paperSqIn := areaPts / (PointsPerInch * PointsPerInch)
	realSqIn := paperSqIn * scaleFactor * scaleFactor
	return realSqIn / 144.0
}

// RealSFToPts is the inverse of PtsToRealSF.
func RealSFToPts(areaSF, scaleFactor float64) float64 {
	realSqIn := areaSF * 144.0
	paperSqIn := realSqIn / (scaleFactor * scaleFactor)
	return paperSqIn * PointsPerInch * PointsPerInch
}

// PtsToRealLF converts a length in PDF points to real-world linear
// feet:
//
//	length_lf = length_pts * (1/72) * scale_factor / 12
func PtsToRealLF(lengthPts, scaleFactor float64) float64 {
	paperIn := lengthPts / PointsPerInch
	realIn := paperIn * scaleFactor
	return realIn / 12.0
}

// RealLFToPts is the inverse of PtsToRealLF.
func RealLFToPts(lengthLF, scaleFactor float64) float64 {
	realIn := lengthLF * 12.0
	paperIn := realIn / scaleFactor
	return paperIn * PointsPerInch
}

// RealInchesToPts converts a real-world length in inches to page points
// at the given scale. Used to express the plausible wall-thickness band
// (roughly 4-12 real inches) in points.
func RealInchesToPts(realIn, scaleFactor float64) float64 {
	return realIn / scaleFactor * PointsPerInch
}
