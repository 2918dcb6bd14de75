package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
	"github.com/emilythestrangee/decision-board/backend/internal/voting"
)

type VoteRepo struct {
	db *gorm.DB
}

func NewVoteRepo(db *gorm.DB) *VoteRepo {
	return &VoteRepo{db: db}
}

type ballotRow struct {
	DecisionID uuid.UUID
	UserID     int
	VoteType   models.VoteType
}

// Ballots loads the vote rows of each decision. Decisions without votes are
// absent from the map.
func (r *VoteRepo) Ballots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]voting.Ballot, error) {
	out := make(map[uuid.UUID][]voting.Ballot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []ballotRow
	err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Select("decision_id, user_id, vote_type").
		Where("decision_id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load ballots: %w", err)
	}
	for _, row := range rows {
		out[row.DecisionID] = append(out[row.DecisionID], voting.Ballot{VoterID: row.UserID, Type: row.VoteType})
	}
	return out, nil
}

// GenderBallots joins a decision's votes with the voters' profile gender.
func (r *VoteRepo) GenderBallots(ctx context.Context, decisionID uuid.UUID) ([]voting.GenderedBallot, error) {
	var rows []struct {
		VoteType models.VoteType
		Gender   *string
	}
	err := r.db.WithContext(ctx).Table("decision_votes AS v").
		Select("v.vote_type, u.gender").
		Joins("JOIN users u ON u.id = v.user_id").
		Where("v.decision_id = ?", decisionID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load gender ballots: %w", err)
	}
	out := make([]voting.GenderedBallot, 0, len(rows))
	for _, row := range rows {
		out = append(out, voting.GenderedBallot{Type: row.VoteType, Gender: row.Gender})
	}
	return out, nil
}

// Toggle applies the tri-state toggle for one voter in a single transaction
// and returns the plan it executed together with the resulting tally, as
// seen by that voter. A concurrent first vote by the same voter surfaces as
// ErrDuplicate.
func (r *VoteRepo) Toggle(ctx context.Context, decisionID uuid.UUID, userID int, requested models.VoteType) (voting.Plan, models.Tally, error) {
	var plan voting.Plan
	var tally models.Tally

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("decision_id = ? AND user_id = ?", decisionID, userID).
			Take(&existing).Error

		var current *models.VoteType
		switch {
		case err == nil:
			current = &existing.VoteType
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("find vote: %w", err)
		}

		plan = voting.PlanToggle(current, requested)
		switch plan.Action {
		case models.VoteCreated:
			vote := models.Vote{DecisionID: decisionID, UserID: userID, VoteType: requested}
			if err := tx.Create(&vote).Error; err != nil {
				return fmt.Errorf("create vote: %w", translate(err))
			}
		case models.VoteRemoved:
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("delete vote: %w", err)
			}
		case models.VoteUpdated:
			if err := tx.Model(&existing).Update("vote_type", requested).Error; err != nil {
				return fmt.Errorf("update vote: %w", err)
			}
		}

		var rows []ballotRow
		err = tx.Model(&models.Vote{}).
			Select("decision_id, user_id, vote_type").
			Where("decision_id = ?", decisionID).
			Scan(&rows).Error
		if err != nil {
			return fmt.Errorf("recount votes: %w", err)
		}
		ballots := make([]voting.Ballot, 0, len(rows))
		for _, row := range rows {
			ballots = append(ballots, voting.Ballot{VoterID: row.UserID, Type: row.VoteType})
		}
		tally = voting.Tally(ballots, &userID)
		return nil
	})
	if err != nil {
		return voting.Plan{}, models.Tally{}, err
	}
	return plan, tally, nil
}
