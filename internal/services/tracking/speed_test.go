package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"speedguard/internal/model"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestEstimator_CommitsSpeedFromCenters(t *testing.T) {
	est := NewEstimator()
	st := &TrackState{TrackID: 1, LastPosition: model.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, LastSeen: t0}

	speed := est.Estimate(st, model.Box{X1: 30, Y1: 0, X2: 40, Y2: 10}, t0.Add(time.Second))

	require.Equal(t, 108.0, speed)
	require.True(t, st.HasSpeed)
	require.Equal(t, 108.0, st.Speed)
}

func TestEstimator_ShortIntervalCommitsNothing(t *testing.T) {
	est := NewEstimator()
	st := &TrackState{TrackID: 1, LastPosition: model.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, LastSeen: t0}
	next := model.Box{X1: 30, Y1: 0, X2: 40, Y2: 10}

	speed := est.Estimate(st, next, t0.Add(30*time.Millisecond))

	require.Zero(t, speed)
	require.False(t, st.HasSpeed)
	require.Equal(t, next, st.LastPosition)
	require.Equal(t, t0.Add(30*time.Millisecond), st.LastSeen)
}

func TestEstimator_ExactlyMinIntervalIsNotEnough(t *testing.T) {
	est := NewEstimator()
	st := &TrackState{LastPosition: model.Box{X2: 10, Y2: 10}, LastSeen: t0}

	require.Zero(t, est.Estimate(st, model.Box{X1: 5, X2: 15, Y2: 10}, t0.Add(MinInterval)))
	require.False(t, st.HasSpeed)
}

func TestEstimator_SpeedIsFrozen(t *testing.T) {
	est := NewEstimator()
	st := &TrackState{LastPosition: model.Box{X2: 10, Y2: 10}, LastSeen: t0}

	first := est.Estimate(st, model.Box{X1: 30, X2: 40, Y2: 10}, t0.Add(time.Second))
	require.Equal(t, 108.0, first)

	// A much faster move afterwards does not change the committed value.
	later := est.Estimate(st, model.Box{X1: 1030, X2: 1040, Y2: 10}, t0.Add(2*time.Second))
	require.Equal(t, 108.0, later)
	require.Equal(t, model.Box{X1: 1030, X2: 1040, Y2: 10}, st.LastPosition)
}

func TestEstimator_RoundsToTwoDecimals(t *testing.T) {
	est := NewEstimator()
	st := &TrackState{LastPosition: model.Box{X2: 10, Y2: 10}, LastSeen: t0}

	// 10 units in 0.7s -> 51.428571.. km/h
	speed := est.Estimate(st, model.Box{X1: 10, X2: 20, Y2: 10}, t0.Add(700*time.Millisecond))
	require.Equal(t, 51.43, speed)
}

func TestEstimator_ShortIntervalThenQualifying(t *testing.T) {
	est := NewEstimator()
	st := &TrackState{LastPosition: model.Box{X2: 10, Y2: 10}, LastSeen: t0}

	require.Zero(t, est.Estimate(st, model.Box{X1: 1, X2: 11, Y2: 10}, t0.Add(20*time.Millisecond)))
	// Measured from the last sighting, not the first one.
	speed := est.Estimate(st, model.Box{X1: 11, X2: 21, Y2: 10}, t0.Add(1020*time.Millisecond))
	require.Equal(t, 36.0, speed)
}
