package voting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

func intPtr(i int) *int { return &i }

func ballots(up, down int) []Ballot {
	var out []Ballot
	id := 1
	for range up {
		out = append(out, Ballot{VoterID: id, Type: models.VoteUp})
		id++
	}
	for range down {
		out = append(out, Ballot{VoterID: id, Type: models.VoteDown})
		id++
	}
	return out
}

func TestTally_NoRows(t *testing.T) {
	for _, rows := range [][]Ballot{nil, {}} {
		got := Tally(rows, intPtr(7))
		assert.Equal(t, 0, got.Up)
		assert.Equal(t, 0, got.Down)
		assert.Nil(t, got.UserVote)
	}
}

func TestTally_CountsByType(t *testing.T) {
	got := Tally(ballots(3, 1), nil)
	assert.Equal(t, 3, got.Up)
	assert.Equal(t, 1, got.Down)
	assert.Equal(t, 4, got.Total())
}

func TestTally_ViewerVote(t *testing.T) {
	rows := ballots(3, 1) // voter 4 voted down

	got := Tally(rows, intPtr(4))
	require.NotNil(t, got.UserVote)
	assert.Equal(t, models.VoteDown, *got.UserVote)

	got = Tally(rows, intPtr(99))
	assert.Nil(t, got.UserVote, "viewer without a row")
}

func TestTally_AnonymousNeverHasUserVote(t *testing.T) {
	rows := []Ballot{{VoterID: 0, Type: models.VoteUp}, {VoterID: 1, Type: models.VoteDown}}
	got := Tally(rows, nil)
	assert.Nil(t, got.UserVote)
	assert.Equal(t, 1, got.Up)
	assert.Equal(t, 1, got.Down)
}

func TestTally_IgnoresUnknownTypes(t *testing.T) {
	rows := []Ballot{{VoterID: 1, Type: "sideways"}, {VoterID: 2, Type: models.VoteUp}}
	got := Tally(rows, intPtr(1))
	assert.Equal(t, 1, got.Up)
	assert.Equal(t, 0, got.Down)
	assert.Nil(t, got.UserVote)
}
