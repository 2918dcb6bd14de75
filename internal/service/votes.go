package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/emilythestrangee/decision-board/backend/internal/events"
	"github.com/emilythestrangee/decision-board/backend/internal/logging"
	"github.com/emilythestrangee/decision-board/backend/internal/metrics"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
	"github.com/emilythestrangee/decision-board/backend/internal/repository"
	"github.com/emilythestrangee/decision-board/backend/internal/voting"
)

// Vote applies the tri-state toggle for userID and returns the confirmed
// tally, which clients use to reconcile their optimistic copy.
func (s *DecisionService) Vote(ctx context.Context, userID int, id uuid.UUID, vt models.VoteType) (models.VoteResult, error) {
	if !vt.Valid() {
		return models.VoteResult{}, fmt.Errorf("%w: vote type %q", ErrInvalidInput, vt)
	}
	d, err := s.decisions.Get(ctx, id)
	if err != nil {
		return models.VoteResult{}, mapRepoErr(err)
	}
	if d.Closed(s.now()) {
		return models.VoteResult{}, ErrDecisionClosed
	}

	plan, tally, err := s.votes.Toggle(ctx, id, userID, vt)
	if errors.Is(err, repository.ErrDuplicate) {
		metrics.VoteConflicts.Inc()
		return models.VoteResult{}, ErrVoteConflict
	}
	if err != nil {
		return models.VoteResult{}, err
	}
	metrics.ObserveVote(plan.Action)

	if err := s.cache.Invalidate(ctx, id); err != nil {
		logging.Logger.Warn().Err(err).Msg("cache: invalidate after vote")
	}
	s.publish(events.Event{
		Kind:       events.VoteCast,
		DecisionID: id,
		UserID:     userID,
		Action:     plan.Action,
		VoteType:   vt,
		Votes:      &tally,
	})

	return models.VoteResult{Action: plan.Action, Votes: tally}, nil
}

// Breakdown splits a decision's votes by voter gender.
func (s *DecisionService) Breakdown(ctx context.Context, id uuid.UUID) (models.GenderBreakdown, error) {
	if _, err := s.decisions.Get(ctx, id); err != nil {
		return models.GenderBreakdown{}, mapRepoErr(err)
	}

	b, ver, ok, cacheErr := s.cache.Breakdown(ctx, id)
	if cacheErr != nil {
		logging.Logger.Warn().Err(cacheErr).Msg("cache: read breakdown")
	}
	if ok {
		metrics.BreakdownCache.WithLabelValues("hit").Inc()
		return b, nil
	}
	metrics.BreakdownCache.WithLabelValues("miss").Inc()

	rows, err := s.votes.GenderBallots(ctx, id)
	if err != nil {
		return models.GenderBreakdown{}, err
	}
	b = voting.Breakdown(rows)
	if cacheErr != nil {
		return b, nil
	}
	if err := s.cache.SetBreakdown(ctx, id, ver, b); err != nil {
		logging.Logger.Warn().Err(err).Msg("cache: store breakdown")
	}
	return b, nil
}
