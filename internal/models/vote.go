package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

func (t VoteType) Valid() bool {
	return t == VoteUp || t == VoteDown
}

// Vote is one row of decision_votes. A voter holds at most one per decision.
type Vote struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DecisionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vote_decision_user" json:"decision_id"`
	UserID     int       `gorm:"not null;uniqueIndex:idx_vote_decision_user" json:"user_id"`
	VoteType   VoteType  `gorm:"type:varchar(4);not null;check:chk_vote_type,vote_type IN ('up','down')" json:"vote_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Vote) TableName() string { return "decision_votes" }

func (v *Vote) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Tally is the aggregated vote state of one decision as seen by one viewer.
type Tally struct {
	Up       int       `json:"up"`
	Down     int       `json:"down"`
	UserVote *VoteType `json:"user_vote"`
}

// Total returns the number of votes counted in the tally.
func (t Tally) Total() int { return t.Up + t.Down }

// UpDown is a pair of vote counts.
type UpDown struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

// GenderBreakdown splits a decision's votes by the voter's profile gender.
type GenderBreakdown struct {
	Male   UpDown `json:"male"`
	Female UpDown `json:"female"`
}

// Total returns the number of votes counted across both buckets.
func (b GenderBreakdown) Total() int {
	return b.Male.Up + b.Male.Down + b.Female.Up + b.Female.Down
}

// VoteAction reports which write a toggle performed.
type VoteAction string

const (
	VoteCreated VoteAction = "created"
	VoteUpdated VoteAction = "updated"
	VoteRemoved VoteAction = "removed"
)

type VoteRequest struct {
	VoteType VoteType `json:"vote_type" binding:"required,oneof=up down"`
}

// VoteResult is the server-confirmed outcome of a toggle.
type VoteResult struct {
	Action VoteAction `json:"action"`
	Votes  Tally      `json:"votes"`
}
