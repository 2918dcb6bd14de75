package voting

import "github.com/emilythestrangee/decision-board/backend/internal/models"

// Ballot is the strict record a vote row is mapped to before aggregation.
type Ballot struct {
	VoterID int
	Type    models.VoteType
}

// Tally counts ballots by type. viewer is nil for anonymous readers, in which
// case UserVote is always nil. A nil slice tallies to zero.
func Tally(ballots []Ballot, viewer *int) models.Tally {
	var t models.Tally
	for _, b := range ballots {
		switch b.Type {
		case models.VoteUp:
			t.Up++
		case models.VoteDown:
			t.Down++
		default:
			continue
		}
		if viewer != nil && b.VoterID == *viewer && t.UserVote == nil {
			vt := b.Type
			t.UserVote = &vt
		}
	}
	return t
}
