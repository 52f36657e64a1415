package tracking

import (
	"math"
	"time"

	"speedguard/internal/model"
)

const (
	// MinInterval is the elapsed time a track must exceed before its speed is committed.
	MinInterval = 50 * time.Millisecond

	// msToKmh converts units per second to km/h, treating a pixel as one meter.
	msToKmh = 3.6
)

// Estimator turns a track's previous and current position into a one-time speed.
type Estimator struct {
	MinInterval time.Duration
}

func NewEstimator() *Estimator {
	return &Estimator{MinInterval: MinInterval}
}

// Estimate returns the committed speed of st, computing it if the elapsed time
// since the last sighting exceeds the minimum interval. A committed speed is
// never recomputed. LastPosition and LastSeen always move to box and now.
// Zero is returned while no speed is committed.
func (e *Estimator) Estimate(st *TrackState, box model.Box, now time.Time) float64 {
	defer func() {
		st.LastPosition = box
		st.LastSeen = now
	}()

	if st.HasSpeed {
		return st.Speed
	}

	elapsed := now.Sub(st.LastSeen)
	if elapsed <= e.MinInterval {
		return 0
	}

	distance := st.LastPosition.Distance(box)
	kmh := distance / elapsed.Seconds() * msToKmh

	st.Speed = round2(kmh)
	st.HasSpeed = true
	return st.Speed
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
