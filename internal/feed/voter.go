package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/decision-board/backend/internal/logging"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
	"github.com/emilythestrangee/decision-board/backend/internal/voting"
)

var (
	ErrVoteInFlight    = errors.New("a vote on this decision is already pending")
	ErrDecisionClosed  = errors.New("decision is closed for voting")
	ErrUnknownDecision = errors.New("decision is not loaded")
	ErrInvalidVote     = errors.New("vote type must be up or down")
)

// Backend performs the single network write of a vote toggle.
type Backend interface {
	Vote(ctx context.Context, id uuid.UUID, vt models.VoteType) (models.VoteResult, error)
}

// Voter runs optimistic vote toggles against a Store.
type Voter struct {
	store   *Store
	backend Backend
	now     func() time.Time
}

func NewVoter(store *Store, backend Backend) *Voter {
	return &Voter{store: store, backend: backend, now: time.Now}
}

// Vote toggles the viewer's vote on id. The store is patched before the
// request is sent. On success the store takes the server's tally; on failure
// the optimistic delta is inverted, unless the entry was reloaded meanwhile,
// and the backend error is returned. A second call for the same decision
// while one is pending returns ErrVoteInFlight and changes nothing.
func (v *Voter) Vote(ctx context.Context, id uuid.UUID, requested models.VoteType) (models.Tally, error) {
	if !requested.Valid() {
		return models.Tally{}, ErrInvalidVote
	}
	current, rev, err := v.store.begin(id)
	if err != nil {
		return models.Tally{}, err
	}
	defer v.store.end(id)

	if current.Closed(v.now()) {
		return current.Votes, ErrDecisionClosed
	}

	plan := voting.PlanToggle(current.Votes.UserVote, requested)
	v.store.patchAt(id, rev, func(d *models.DecisionView) {
		d.Votes = voting.Apply(d.Votes, plan)
	})

	res, err := v.backend.Vote(ctx, id, requested)
	if err != nil {
		// A reload during the request already replaced the patched entry
		// with persisted counts; reverting on top of it would undercount.
		v.store.patchAt(id, rev, func(d *models.DecisionView) {
			d.Votes = voting.Revert(d.Votes, plan)
		})
		logging.Logger.Warn().Err(err).Str("decision_id", id.String()).Msg("vote failed, reverted")
		after, _ := v.store.Get(id)
		return after.Votes, fmt.Errorf("vote: %w", err)
	}

	v.store.ApplyTally(id, res.Votes)
	return cloneTally(res.Votes), nil
}
