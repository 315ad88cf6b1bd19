package spaces

import (
	"context"
	"fmt"
)

// RoomMixSource supplies the typical room-type area distribution of a
// building type, used when neither geometry nor the interpreter yields
// individual rooms. The store package provides a database-backed
// implementation; StaticRoomMix carries the built-in priors.
type RoomMixSource interface {
	Mix(ctx context.Context, bt BuildingType) (map[RoomType]float64, error)
}

// StaticRoomMix serves hard-coded room-type distributions.
type StaticRoomMix struct{}

// builtinMixes holds the area fractions per building type. Fractions
// sum to 1.
var builtinMixes = map[BuildingType]map[RoomType]float64{
	BuildingSingleFamily: {
		RoomBedroom:    0.30,
		RoomBathroom:   0.08,
		RoomKitchen:    0.10,
		RoomLiving:     0.22,
		RoomDining:     0.08,
		RoomCorridor:   0.07,
		RoomStorage:    0.05,
		RoomGarage:     0.10,
	},
	BuildingMultiFamily: {
		RoomBedroom:    0.34,
		RoomBathroom:   0.10,
		RoomKitchen:    0.12,
		RoomLiving:     0.26,
		RoomCorridor:   0.12,
		RoomStorage:    0.04,
		RoomMechanical: 0.02,
	},
	BuildingOffice: {
		RoomOffice:     0.55,
		RoomCorridor:   0.18,
		RoomBathroom:   0.06,
		RoomKitchen:    0.05,
		RoomStorage:    0.08,
		RoomMechanical: 0.08,
	},
	BuildingRetail: {
		RoomOther:      0.70,
		RoomStorage:    0.15,
		RoomBathroom:   0.05,
		RoomCorridor:   0.05,
		RoomMechanical: 0.05,
	},
	BuildingMixedUse: {
		RoomOther:      0.40,
		RoomBedroom:    0.20,
		RoomLiving:     0.15,
		RoomCorridor:   0.12,
		RoomBathroom:   0.07,
		RoomMechanical: 0.06,
	},
}

// Mix returns the built-in distribution for bt.
func (StaticRoomMix) Mix(_ context.Context, bt BuildingType) (map[RoomType]float64, error) {
	mix, ok := builtinMixes[bt]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBuildingType, bt)
	}
	out := make(map[RoomType]float64, len(mix))
	for k, v := range mix {
		out[k] = v
	}
	return out, nil
}
