// Package feed holds the client-side state shared by every view of the
// decision board: one ordered collection of decisions, mutated only through
// the Store's reducer-style entry points, plus the optimistic Voter.
package feed

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

// Store is the single source of truth for decisions on the client. The feed
// and the detail view read the same entries, so a vote patched from one is
// visible in the other. Reads return copies.
type Store struct {
	mu       sync.RWMutex
	order    []uuid.UUID
	items    map[uuid.UUID]models.DecisionView
	inflight map[uuid.UUID]bool
	subs     map[int]func(uuid.UUID)
	nextSub  int

	// rev changes whenever an entry is reloaded wholesale, so an in-flight
	// vote can tell whether its optimistic patch is still in place.
	rev map[uuid.UUID]uint64
	seq uint64
}

func NewStore() *Store {
	return &Store{
		items:    make(map[uuid.UUID]models.DecisionView),
		inflight: make(map[uuid.UUID]bool),
		subs:     make(map[int]func(uuid.UUID)),
		rev:      make(map[uuid.UUID]uint64),
	}
}

// Subscribe registers fn to be called with the ID of every changed decision.
// uuid.Nil signals a bulk change. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(uuid.UUID)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Replace swaps the whole collection, keeping the given order.
func (s *Store) Replace(views []models.DecisionView) {
	s.mu.Lock()
	s.order = s.order[:0]
	clear(s.items)
	clear(s.rev)
	for _, v := range views {
		if _, dup := s.items[v.ID]; dup {
			continue
		}
		s.order = append(s.order, v.ID)
		s.put(v)
	}
	s.mu.Unlock()
	s.notify(uuid.Nil)
}

// Append adds a further page. Decisions already held are refreshed in place.
func (s *Store) Append(views []models.DecisionView) {
	s.mu.Lock()
	for _, v := range views {
		if _, ok := s.items[v.ID]; !ok {
			s.order = append(s.order, v.ID)
		}
		s.put(v)
	}
	s.mu.Unlock()
	s.notify(uuid.Nil)
}

// Upsert replaces a held decision or puts a new one first.
func (s *Store) Upsert(v models.DecisionView) {
	s.mu.Lock()
	if _, ok := s.items[v.ID]; !ok {
		s.order = slices.Insert(s.order, 0, v.ID)
	}
	s.put(v)
	s.mu.Unlock()
	s.notify(v.ID)
}

func (s *Store) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	_, ok := s.items[id]
	if ok {
		delete(s.items, id)
		delete(s.rev, id)
		s.order = slices.DeleteFunc(s.order, func(x uuid.UUID) bool { return x == id })
	}
	s.mu.Unlock()
	if ok {
		s.notify(id)
	}
	return ok
}

// ApplyTally overwrites a decision's vote state, typically with a
// server-confirmed tally.
func (s *Store) ApplyTally(id uuid.UUID, t models.Tally) bool {
	return s.Patch(id, func(v *models.DecisionView) {
		v.Votes = cloneTally(t)
	})
}

// Patch applies fn to a held decision. It reports false when id is unknown.
func (s *Store) Patch(id uuid.UUID, fn func(*models.DecisionView)) bool {
	s.mu.Lock()
	v, ok := s.items[id]
	if ok {
		fn(&v)
		s.items[id] = clone(v)
	}
	s.mu.Unlock()
	if ok {
		s.notify(id)
	}
	return ok
}

// patchAt is Patch restricted to an entry that has not been reloaded since
// revision rev.
func (s *Store) patchAt(id uuid.UUID, rev uint64, fn func(*models.DecisionView)) bool {
	s.mu.Lock()
	v, ok := s.items[id]
	ok = ok && s.rev[id] == rev
	if ok {
		fn(&v)
		s.items[id] = clone(v)
	}
	s.mu.Unlock()
	if ok {
		s.notify(id)
	}
	return ok
}

// put stores v under a fresh revision. Callers hold mu.
func (s *Store) put(v models.DecisionView) {
	s.seq++
	s.rev[v.ID] = s.seq
	s.items[v.ID] = clone(v)
}

func (s *Store) Get(id uuid.UUID) (models.DecisionView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[id]
	if !ok {
		return models.DecisionView{}, false
	}
	return clone(v), true
}

// Snapshot returns every held decision in display order.
func (s *Store) Snapshot() []models.DecisionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DecisionView, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.items[id]))
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Voting reports whether a vote on id is awaiting the server.
func (s *Store) Voting(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight[id]
}

// begin marks id as having a vote in flight and returns its current state
// and revision.
func (s *Store) begin(id uuid.UUID) (models.DecisionView, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if !ok {
		return models.DecisionView{}, 0, ErrUnknownDecision
	}
	if s.inflight[id] {
		return models.DecisionView{}, 0, ErrVoteInFlight
	}
	s.inflight[id] = true
	return clone(v), s.rev[id], nil
}

func (s *Store) end(id uuid.UUID) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

func (s *Store) notify(id uuid.UUID) {
	s.mu.RLock()
	subs := make([]func(uuid.UUID), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(id)
	}
}

func clone(v models.DecisionView) models.DecisionView {
	v.Category = clonePtr(v.Category)
	v.ImageURL = clonePtr(v.ImageURL)
	v.ExpiresAt = clonePtr(v.ExpiresAt)
	v.Votes = cloneTally(v.Votes)
	return v
}

func cloneTally(t models.Tally) models.Tally {
	t.UserVote = clonePtr(t.UserVote)
	return t
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
