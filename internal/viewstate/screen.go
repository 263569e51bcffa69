// Package viewstate holds the per-session presentation state of every screen.
//
// Each screen is a small reducer: values are replaced, never mutated in place, and only
// through the methods below.
package viewstate

import "time"

// Phase is the lifecycle position of a fetch-backed screen.
type Phase int

// Screen phases.
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseEmpty
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseEmpty:
		return "empty"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is a decoded response that can tell whether it has anything to show.
type Result interface {
	IsEmpty() bool
}

// Screen is the state of one fetch-backed screen with query type Q and result type R.
type Screen[Q any, R Result] struct {
	Phase     Phase
	Query     Q
	Result    R
	Err       error
	Seq       uint64
	StartedAt time.Time
	UpdatedAt time.Time
}

// Start issues a new request for q. The returned sequence number must accompany its outcome.
func (s Screen[Q, R]) Start(q Q, now time.Time) (Screen[Q, R], uint64) {
	s.Seq++
	s.Phase = PhaseLoading
	s.Query = q
	s.Err = nil
	s.StartedAt = now
	s.UpdatedAt = now
	return s, s.Seq
}

// Succeed applies res when seq is the latest issued request. Stale outcomes are dropped and
// reported with applied=false.
func (s Screen[Q, R]) Succeed(seq uint64, res R, now time.Time) (next Screen[Q, R], applied bool) {
	if seq != s.Seq || s.Phase != PhaseLoading {
		return s, false
	}
	s.Result = res
	s.Err = nil
	s.Phase = PhaseLoaded
	if res.IsEmpty() {
		s.Phase = PhaseEmpty
	}
	s.UpdatedAt = now
	return s, true
}

// Fail moves the screen to PhaseError when seq is the latest issued request.
func (s Screen[Q, R]) Fail(seq uint64, err error, now time.Time) (next Screen[Q, R], applied bool) {
	if seq != s.Seq || s.Phase != PhaseLoading {
		return s, false
	}
	var zero R
	s.Result = zero
	s.Err = err
	s.Phase = PhaseError
	s.UpdatedAt = now
	return s, true
}

// Retry re-issues the last query. It is refused while the screen has never started.
func (s Screen[Q, R]) Retry(now time.Time) (Screen[Q, R], uint64, bool) {
	if s.Phase == PhaseIdle {
		return s, 0, false
	}
	next, seq := s.Start(s.Query, now)
	return next, seq, true
}

// Loaded reports whether a non-empty result is on screen.
func (s Screen[Q, R]) Loaded() bool {
	return s.Phase == PhaseLoaded
}
