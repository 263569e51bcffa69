package viewstate

import (
	"sync"
	"time"
)

// Store keeps one Workspace per session id in memory.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

type entry struct {
	ws   Workspace
	seen time.Time
}

// NewStore builds an empty Store. A nil clock defaults to time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{entries: make(map[string]*entry), now: now}
}

// Snapshot returns a copy of the workspace of id, creating it when missing.
func (s *Store) Snapshot(id string) Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(id).ws
}

// Update runs fn on the workspace of id under the store lock and returns the result.
func (s *Store) Update(id string, fn func(*Workspace)) Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(id)
	fn(&e.ws)
	return e.ws
}

// UpdateExisting is Update for a workspace that must already exist. It reports false and
// leaves the store untouched when id was dropped or pruned.
func (s *Store) UpdateExisting(id string, fn func(*Workspace)) (Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Workspace{}, false
	}
	fn(&e.ws)
	return e.ws, true
}

// Drop forgets the workspace of id.
func (s *Store) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Prune forgets workspaces untouched for longer than maxIdle and reports how many went.
func (s *Store) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for id, e := range s.entries {
		if e.seen.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live workspaces.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Now exposes the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) lookup(id string) *entry {
	e, ok := s.entries[id]
	if !ok {
		e = &entry{ws: NewWorkspace()}
		s.entries[id] = e
	}
	e.seen = s.now()
	return e
}

// DispatchAuth applies action to the auth screen of id.
func (s *Store) DispatchAuth(id string, action AuthAction) AuthScreen {
	return s.Update(id, func(ws *Workspace) {
		ws.Auth = ws.Auth.Reduce(action)
		if action == LoginSucceeded {
			ws.Nav = Dashboard
		}
	}).Auth
}

// ChangeView applies fn to the prediction sub-view of id. The held forecast is untouched.
func (s *Store) ChangeView(id string, fn func(ForecastView) ForecastView) ForecastView {
	return s.Update(id, func(ws *Workspace) {
		ws.View = fn(ws.View)
	}).View
}
