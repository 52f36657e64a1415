package tracking

import (
	"container/list"
	"sync"
	"time"

	"speedguard/internal/model"
)

// TrackState is the per-track memory of the pipeline.
type TrackState struct {
	TrackID      int
	LastPosition model.Box
	LastSeen     time.Time
	Speed        float64 // km/h, meaningful only when HasSpeed
	HasSpeed     bool
	Logged       bool
}

// Store keeps one TrackState per track id.
//
// With a capacity > 0 the least recently observed track is evicted once the
// store is full. Ids of evicted tracks that were already logged are kept in a
// separate set so that a later sighting of the same id never logs again.
type Store struct {
	mu       sync.Mutex
	capacity int
	tracks   map[int]*list.Element
	order    *list.List // front = most recently observed
	retired  map[int]struct{}
}

// NewStore creates a store; capacity <= 0 means unbounded.
func NewStore(capacity int) *Store {
	return &Store{
		capacity: capacity,
		tracks:   make(map[int]*list.Element),
		order:    list.New(),
		retired:  make(map[int]struct{}),
	}
}

// Observe returns the state of trackID, creating it from box and now on first
// sighting, and runs fn on it under the store lock. The returned value is a
// snapshot taken after fn.
func (s *Store) Observe(trackID int, box model.Box, now time.Time, fn func(st *TrackState)) TrackState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(trackID, box, now)
	if fn != nil {
		fn(st)
	}
	return *st
}

// Get returns a snapshot of a known track.
func (s *Store) Get(trackID int) (TrackState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.tracks[trackID]
	if !ok {
		return TrackState{}, false
	}
	return *el.Value.(*TrackState), true
}

// ClaimLog marks trackID as logged and reports whether this call did it.
// It returns false for unknown tracks and for tracks that were already logged.
func (s *Store) ClaimLog(trackID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.tracks[trackID]
	if !ok {
		return false
	}
	st := el.Value.(*TrackState)
	if st.Logged {
		return false
	}
	st.Logged = true
	return true
}

// End forgets a track after the tracker reported it finished.
func (s *Store) End(trackID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.tracks[trackID]; ok {
		s.order.Remove(el)
		delete(s.tracks, trackID)
	}
	delete(s.retired, trackID)
}

// Len returns the number of live tracks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

func (s *Store) getOrCreate(trackID int, box model.Box, now time.Time) *TrackState {
	if el, ok := s.tracks[trackID]; ok {
		s.order.MoveToFront(el)
		return el.Value.(*TrackState)
	}

	st := &TrackState{
		TrackID:      trackID,
		LastPosition: box,
		LastSeen:     now,
	}
	if _, ok := s.retired[trackID]; ok {
		st.Logged = true
		delete(s.retired, trackID)
	}

	s.tracks[trackID] = s.order.PushFront(st)
	s.evict()
	return st
}

func (s *Store) evict() {
	if s.capacity <= 0 {
		return
	}
	for len(s.tracks) > s.capacity {
		oldest := s.order.Back()
		if oldest == nil {
			return
		}
		st := oldest.Value.(*TrackState)
		if st.Logged {
			s.retired[st.TrackID] = struct{}{}
		}
		s.order.Remove(oldest)
		delete(s.tracks, st.TrackID)
	}
}
