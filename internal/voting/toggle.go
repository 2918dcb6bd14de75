package voting

import "github.com/emilythestrangee/decision-board/backend/internal/models"

// Plan is the outcome of applying a requested vote to a voter's existing one.
type Plan struct {
	Action   models.VoteAction
	Previous *models.VoteType
	Next     *models.VoteType
}

// PlanToggle resolves the tri-state toggle: no vote creates, the same type
// removes, a different type switches.
func PlanToggle(existing *models.VoteType, requested models.VoteType) Plan {
	next := requested
	switch {
	case existing == nil:
		return Plan{Action: models.VoteCreated, Next: &next}
	case *existing == requested:
		prev := *existing
		return Plan{Action: models.VoteRemoved, Previous: &prev}
	default:
		prev := *existing
		return Plan{Action: models.VoteUpdated, Previous: &prev, Next: &next}
	}
}

// Delta is a signed change to the up and down counts.
type Delta struct {
	Up   int
	Down int
}

func (p Plan) Delta() Delta {
	var d Delta
	if p.Previous != nil {
		d.add(*p.Previous, -1)
	}
	if p.Next != nil {
		d.add(*p.Next, 1)
	}
	return d
}

func (d *Delta) add(t models.VoteType, n int) {
	switch t {
	case models.VoteUp:
		d.Up += n
	case models.VoteDown:
		d.Down += n
	}
}

// Apply returns t with the plan's delta added and UserVote set to the plan's
// next state. Counts never drop below zero.
func Apply(t models.Tally, p Plan) models.Tally {
	d := p.Delta()
	t.Up = clamp(t.Up + d.Up)
	t.Down = clamp(t.Down + d.Down)
	t.UserVote = copyType(p.Next)
	return t
}

// Revert inverts Apply: the delta is subtracted and UserVote goes back to
// the plan's previous state.
func Revert(t models.Tally, p Plan) models.Tally {
	d := p.Delta()
	t.Up = clamp(t.Up - d.Up)
	t.Down = clamp(t.Down - d.Down)
	t.UserVote = copyType(p.Previous)
	return t
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func copyType(t *models.VoteType) *models.VoteType {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
