package voting

import "github.com/emilythestrangee/decision-board/backend/internal/models"

// GenderedBallot is a vote joined with its voter's profile gender. Gender
// is nil when the profile has none.
type GenderedBallot struct {
	Type   models.VoteType
	Gender *string
}

// Breakdown buckets ballots into male and female counts. Voters with any
// other or no gender are left out rather than given a third bucket.
func Breakdown(ballots []GenderedBallot) models.GenderBreakdown {
	var b models.GenderBreakdown
	for _, gb := range ballots {
		if gb.Gender == nil {
			continue
		}
		var bucket *models.UpDown
		switch *gb.Gender {
		case models.GenderMale:
			bucket = &b.Male
		case models.GenderFemale:
			bucket = &b.Female
		default:
			continue
		}
		switch gb.Type {
		case models.VoteUp:
			bucket.Up++
		case models.VoteDown:
			bucket.Down++
		}
	}
	return b
}
