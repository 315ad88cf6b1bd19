package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPtsToRealSF(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		areaPts     float64
		scaleFactor float64
		wantSF      float64
	}{
		// 8in x 4in of paper at 1/4"=1'-0" is a 32ft x 16ft room
		{"quarter inch scale room", 576 * 288, 48, 512},
		// one square paper inch at 1/8"=1'-0" is 64 square feet
		{"eighth inch scale unit", 72 * 72, 96, 64},
		{"full scale", 72 * 72, 12, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantSF, PtsToRealSF(tt.areaPts, tt.scaleFactor), 1e-9)
		})
	}
}

func TestPtsToRealLF(t *testing.T) {
	t.Parallel()
	// 4 paper inches at 1/4"=1'-0" is 16 feet
	assert.InDelta(t, 16.0, PtsToRealLF(288, 48), 1e-9)
	// a full sheet width at 1/8"=1'-0"
	assert.InDelta(t, 288.0, PtsToRealLF(36*72, 96), 1e-9)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	for _, scale := range []float64{12, 48, 96, 120} {
		assert.InDelta(t, 1234.5, PtsToRealSF(RealSFToPts(1234.5, scale), scale), 1e-9)
		assert.InDelta(t, 87.25, PtsToRealLF(RealLFToPts(87.25, scale), scale), 1e-9)
	}
}

func TestRealInchesToPts(t *testing.T) {
	t.Parallel()
	// a 6 real-inch wall at 1/4"=1'-0" draws 9 points wide
	assert.InDelta(t, 9.0, RealInchesToPts(6, 48), 1e-9)
}
