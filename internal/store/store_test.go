package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftscale/takeoff/internal/measure"
	"github.com/draftscale/takeoff/internal/scale"
	"github.com/draftscale/takeoff/internal/spaces"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "takeoff.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMeasurement(label string) *measure.Measurement {
	return &measure.Measurement{
		PageLabel: label,
		Scale: &scale.Result{
			ScaleFactor: 48,
			Notation:    `1/4" = 1'-0"`,
			Confidence:  scale.ConfidenceHigh,
			Method:      scale.MethodNotation,
		},
		ScaleSource:  scale.SourceUnverified,
		GrossAreaSF:  512,
		WallLengthLF: 96,
		AreaSource:   measure.AreaFromRooms,
		Confidence:   spaces.ConfidenceHigh,
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	program := &spaces.SpaceProgram{
		BuildingType: spaces.BuildingSingleFamily,
		GrossAreaSF:  512,
		Spaces: []spaces.Space{
			{RoomType: spaces.RoomLiving, Name: "LIVING ROOM", AreaSF: 512,
				Source: spaces.SourceMeasured, Confidence: spaces.ConfidenceHigh},
		},
	}

	id, err := s.SaveRun(ctx, sampleMeasurement("A-101"), program)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "A-101", run.PageLabel)
	assert.InDelta(t, 512.0, run.GrossAreaSF, 1e-9)
	assert.InDelta(t, 96.0, run.WallLengthLF, 1e-9)
	assert.Equal(t, measure.AreaFromRooms, run.AreaSource)
	assert.Equal(t, string(spaces.ConfidenceHigh), run.Confidence)
	assert.False(t, run.CreatedAt.IsZero())

	require.NotNil(t, run.Measurement, "payload round-trips")
	require.NotNil(t, run.Measurement.Scale)
	assert.InDelta(t, 48.0, run.Measurement.Scale.ScaleFactor, 1e-9)
	require.NotNil(t, run.Program)
	require.Len(t, run.Program.Spaces, 1)
	assert.Equal(t, "LIVING ROOM", run.Program.Spaces[0].Name)
}

func TestSaveRunWithoutProgram(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m := sampleMeasurement("A-102")
	m.Scale = nil

	id, err := s.SaveRun(ctx, m, nil)
	require.NoError(t, err)

	run, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, run.Program)
	require.NotNil(t, run.Measurement)
	assert.Nil(t, run.Measurement.Scale)
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ids := make(map[string]bool)
	for _, label := range []string{"A-101", "A-102", "A-103"} {
		id, err := s.SaveRun(ctx, sampleMeasurement(label), nil)
		require.NoError(t, err)
		ids[id] = true
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for _, r := range runs {
		assert.True(t, ids[r.ID])
		assert.Nil(t, r.Measurement, "summaries carry no payload")
	}

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMix(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	t.Run("empty table falls back to the built-in priors", func(t *testing.T) {
		mix, err := s.Mix(ctx, spaces.BuildingSingleFamily)
		require.NoError(t, err)
		static, err := spaces.StaticRoomMix{}.Mix(ctx, spaces.BuildingSingleFamily)
		require.NoError(t, err)
		assert.Equal(t, static, mix)
	})

	t.Run("stored mix overrides the priors", func(t *testing.T) {
		want := map[spaces.RoomType]float64{
			spaces.RoomOffice:  0.7,
			spaces.RoomStorage: 0.3,
		}
		require.NoError(t, s.SetMix(ctx, spaces.BuildingOffice, want))

		mix, err := s.Mix(ctx, spaces.BuildingOffice)
		require.NoError(t, err)
		assert.Equal(t, want, mix)
	})

	t.Run("SetMix replaces the previous rows", func(t *testing.T) {
		first := map[spaces.RoomType]float64{spaces.RoomOffice: 1.0}
		require.NoError(t, s.SetMix(ctx, spaces.BuildingRetail, first))

		second := map[spaces.RoomType]float64{
			spaces.RoomStorage: 0.2,
			spaces.RoomOther:   0.8,
		}
		require.NoError(t, s.SetMix(ctx, spaces.BuildingRetail, second))

		mix, err := s.Mix(ctx, spaces.BuildingRetail)
		require.NoError(t, err)
		assert.Equal(t, second, mix)
	})

	t.Run("unknown building type with no rows", func(t *testing.T) {
		_, err := s.Mix(ctx, spaces.BuildingUnknown)
		assert.ErrorIs(t, err, spaces.ErrUnknownBuildingType)
	})
}
