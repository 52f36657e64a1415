package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"speedguard/internal/model"
)

func TestStore_ObserveCreatesOnFirstSighting(t *testing.T) {
	s := NewStore(0)
	box := model.Box{X1: 1, Y1: 2, X2: 3, Y2: 4}

	st := s.Observe(5, box, t0, nil)

	require.Equal(t, 5, st.TrackID)
	require.Equal(t, box, st.LastPosition)
	require.Equal(t, t0, st.LastSeen)
	require.False(t, st.HasSpeed)
	require.False(t, st.Logged)
	require.Equal(t, 1, s.Len())
}

func TestStore_ObserveKeepsExistingState(t *testing.T) {
	s := NewStore(0)
	s.Observe(5, model.Box{X2: 10, Y2: 10}, t0, nil)

	st := s.Observe(5, model.Box{X1: 50, X2: 60, Y2: 10}, t0.Add(time.Second), nil)
	require.Equal(t, model.Box{X2: 10, Y2: 10}, st.LastPosition, "creation values only apply to new tracks")
	require.Equal(t, t0, st.LastSeen)
}

func TestStore_ClaimLogOnce(t *testing.T) {
	s := NewStore(0)
	require.False(t, s.ClaimLog(1), "unknown track")

	s.Observe(1, model.Box{}, t0, nil)
	require.True(t, s.ClaimLog(1))
	require.False(t, s.ClaimLog(1))
	require.False(t, s.ClaimLog(1))

	st, ok := s.Get(1)
	require.True(t, ok)
	require.True(t, st.Logged)
}

func TestStore_EndForgetsTrack(t *testing.T) {
	s := NewStore(0)
	s.Observe(1, model.Box{}, t0, nil)
	s.ClaimLog(1)

	s.End(1)
	_, ok := s.Get(1)
	require.False(t, ok)

	st := s.Observe(1, model.Box{}, t0, nil)
	require.False(t, st.Logged, "ended ids may be recycled by the tracker")
}

func TestStore_EvictionKeepsLoggedIDs(t *testing.T) {
	s := NewStore(2)
	s.Observe(1, model.Box{}, t0, nil)
	require.True(t, s.ClaimLog(1))
	s.Observe(2, model.Box{}, t0, nil)
	s.Observe(3, model.Box{}, t0, nil)

	require.Equal(t, 2, s.Len())
	_, ok := s.Get(1)
	require.False(t, ok, "least recently observed track is evicted")

	st := s.Observe(1, model.Box{}, t0, nil)
	require.True(t, st.Logged)
	require.False(t, s.ClaimLog(1))
}

func TestStore_EvictionOrderFollowsObservation(t *testing.T) {
	s := NewStore(2)
	s.Observe(1, model.Box{}, t0, nil)
	s.Observe(2, model.Box{}, t0, nil)
	s.Observe(1, model.Box{}, t0, nil) // 2 is now the oldest
	s.Observe(3, model.Box{}, t0, nil)

	_, ok := s.Get(1)
	require.True(t, ok)
	_, ok = s.Get(2)
	require.False(t, ok)
}
