package upstream

import (
	"sync"
	"time"
)

const ewmaAlpha = 0.2

// Status tracks whether the conversion service answered recently and how
// long it takes to convert. The zero value is unchecked and unreachable.
type Status struct {
	mutex        sync.Mutex
	checked      bool
	reachable    bool
	lastChange   time.Time
	ewmaResponse time.Duration
	hasEWMA      bool
}

// SetReachable records the outcome of a probe or call. It returns true when
// this changes the known state, including the very first observation.
func (s *Status) SetReachable(reachable bool) (changed bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.checked && s.reachable == reachable {
		return false
	}

	s.checked = true
	s.reachable = reachable
	s.lastChange = time.Now()
	return true
}

// Reachable reports the last observation. It is false until one is made.
func (s *Status) Reachable() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.reachable
}

// Checked reports whether any observation has been made.
func (s *Status) Checked() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.checked
}

// LastChange is when the reachability last flipped.
func (s *Status) LastChange() time.Time {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastChange
}

// RecordResponse folds a conversion round trip into the moving average.
func (s *Status) RecordResponse(duration time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.hasEWMA {
		s.ewmaResponse = duration
		s.hasEWMA = true
		return
	}
	//ewma = (1 - α) * ewma + α * latest
	s.ewmaResponse = time.Duration((1-ewmaAlpha)*float64(s.ewmaResponse) + ewmaAlpha*float64(duration))
}

// EWMAResponse returns the moving average round trip, or 0 before the
// first successful call.
func (s *Status) EWMAResponse() time.Duration {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.hasEWMA {
		return 0
	}
	return s.ewmaResponse
}
