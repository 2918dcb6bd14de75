package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/decision-board/backend/internal/database/dbtest"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
	"github.com/emilythestrangee/decision-board/backend/internal/voting"
)

type fixture struct {
	db        *gorm.DB
	users     *UserRepo
	decisions *DecisionRepo
	votes     *VoteRepo
	comments  *CommentRepo
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.New(t)
	return &fixture{
		db:        db,
		users:     NewUserRepo(db),
		decisions: NewDecisionRepo(db),
		votes:     NewVoteRepo(db),
		comments:  NewCommentRepo(db),
	}
}

func (f *fixture) user(t *testing.T, name string, gender *string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x", Gender: gender}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) decision(t *testing.T, author *models.User, title string, category *string) *models.Decision {
	t.Helper()
	d := &models.Decision{UserID: author.ID, Title: title, Category: category, Status: models.StatusPending}
	require.NoError(t, f.decisions.Create(context.Background(), d))
	return d
}

func str(s string) *string { return &s }

func TestVoteRepo_ToggleLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", nil)
	d := f.decision(t, alice, "Move to Lisbon?", nil)

	plan, tally, err := f.votes.Toggle(ctx, d.ID, alice.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, models.VoteCreated, plan.Action)
	assert.Equal(t, 1, tally.Up)
	require.NotNil(t, tally.UserVote)
	assert.Equal(t, models.VoteUp, *tally.UserVote)

	plan, tally, err = f.votes.Toggle(ctx, d.ID, alice.ID, models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, models.VoteUpdated, plan.Action)
	assert.Equal(t, 0, tally.Up)
	assert.Equal(t, 1, tally.Down)

	plan, tally, err = f.votes.Toggle(ctx, d.ID, alice.ID, models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, models.VoteRemoved, plan.Action)
	assert.Equal(t, 0, tally.Total())
	assert.Nil(t, tally.UserVote)

	var n int64
	require.NoError(t, f.db.Model(&models.Vote{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestVoteRepo_OneRowPerVoter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", nil)
	d := f.decision(t, alice, "Buy a bike?", nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = f.votes.Toggle(ctx, d.ID, alice.ID, models.VoteUp)
		}()
	}
	wg.Wait()

	var n int64
	require.NoError(t, f.db.Model(&models.Vote{}).Where("decision_id = ? AND user_id = ?", d.ID, alice.ID).Count(&n).Error)
	assert.LessOrEqual(t, n, int64(1))

	err := f.db.Create(&models.Vote{DecisionID: d.ID, UserID: alice.ID, VoteType: models.VoteDown}).Error
	if n == 1 {
		assert.ErrorIs(t, translate(err), ErrDuplicate)
	}
}

func TestVoteRepo_BallotsAndGender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author", nil)
	d := f.decision(t, author, "Learn Go?", nil)
	other := f.decision(t, author, "Learn Rust?", nil)

	voters := []struct {
		gender *string
		vote   models.VoteType
	}{
		{str(models.GenderMale), models.VoteUp},
		{str(models.GenderMale), models.VoteDown},
		{str(models.GenderFemale), models.VoteUp},
		{str(models.GenderOther), models.VoteUp},
		{nil, models.VoteDown},
	}
	for i, v := range voters {
		u := f.user(t, fmt.Sprintf("voter%d", i), v.gender)
		_, _, err := f.votes.Toggle(ctx, d.ID, u.ID, v.vote)
		require.NoError(t, err)
	}

	ballots, err := f.votes.Ballots(ctx, []uuid.UUID{d.ID, other.ID})
	require.NoError(t, err)
	assert.Len(t, ballots[d.ID], 5)
	assert.Empty(t, ballots[other.ID])

	gendered, err := f.votes.GenderBallots(ctx, d.ID)
	require.NoError(t, err)
	b := voting.Breakdown(gendered)
	assert.Equal(t, models.UpDown{Up: 1, Down: 1}, b.Male)
	assert.Equal(t, models.UpDown{Up: 1}, b.Female)
}

func TestDecisionRepo_ListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", nil)
	bob := f.user(t, "bob", nil)

	f.decision(t, alice, "Switch careers to nursing", str("Career"))
	time.Sleep(5 * time.Millisecond)
	f.decision(t, bob, "Refinance the mortgage", str("Finance"))
	time.Sleep(5 * time.Millisecond)
	newest := f.decision(t, alice, "Take a gap year", nil)

	all, err := f.decisions.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newest.ID, all[0].ID)
	assert.Equal(t, "alice", all[0].User.Username)

	mine, err := f.decisions.List(ctx, ListFilter{AuthorID: alice.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	finance, err := f.decisions.List(ctx, ListFilter{Categories: []string{"Finance", "Health"}})
	require.NoError(t, err)
	require.Len(t, finance, 1)
	assert.Equal(t, "Refinance the mortgage", finance[0].Title)

	found, err := f.decisions.List(ctx, ListFilter{Search: "GAP"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	for _, q := range []string{"_", "%", `\`} {
		found, err = f.decisions.List(ctx, ListFilter{Search: q})
		require.NoError(t, err)
		assert.Empty(t, found, "search %q", q)
	}

	page, err := f.decisions.List(ctx, ListFilter{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Refinance the mortgage", page[0].Title)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "gap year", likePattern("gap year"))
	assert.Equal(t, `100\%`, likePattern("100%"))
	assert.Equal(t, `a\_b`, likePattern("a_b"))
	assert.Equal(t, `c:\\tmp`, likePattern(`c:\tmp`))
}

func TestDecisionRepo_LiteralWildcardSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", nil)
	f.decision(t, alice, "Raise prices 100%?", nil)
	f.decision(t, alice, "Rename my_project", nil)
	f.decision(t, alice, "Buy a 1000 watt kettle", nil)

	found, err := f.decisions.List(ctx, ListFilter{Search: "100%"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Raise prices 100%?", found[0].Title)

	found, err = f.decisions.List(ctx, ListFilter{Search: "y_p"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Rename my_project", found[0].Title)
}

func TestDecisionRepo_AuthorTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", nil)
	bob := f.user(t, "bob", nil)
	carol := f.user(t, "carol", nil)

	career := f.decision(t, alice, "Switch careers?", str("Career"))
	other := f.decision(t, alice, "Get a dog?", nil)
	f.decision(t, alice, "Learn Rust?", str("Career"))
	bobs := f.decision(t, bob, "Sell the car?", str("Finance"))

	for _, v := range []struct {
		d  *models.Decision
		by *models.User
		vt models.VoteType
	}{
		{career, bob, models.VoteUp},
		{career, carol, models.VoteUp},
		{other, bob, models.VoteDown},
		{bobs, alice, models.VoteUp},
	} {
		_, _, err := f.votes.Toggle(ctx, v.d.ID, v.by.ID, v.vt)
		require.NoError(t, err)
	}
	require.NoError(t, f.comments.Create(ctx, &models.Comment{DecisionID: career.ID, UserID: bob.ID, Comment: "go for it"}))
	require.NoError(t, f.comments.Create(ctx, &models.Comment{DecisionID: bobs.ID, UserID: alice.ID, Comment: "keep it"}))

	got, err := f.decisions.AuthorTotals(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Decisions)
	assert.Equal(t, 2, got.Up)
	assert.Equal(t, 1, got.Down)
	assert.Equal(t, 1, got.Comments)

	byLabel := map[string]int{}
	for _, c := range got.Categories {
		label := "<nil>"
		if c.Category != nil {
			label = *c.Category
		}
		byLabel[label] = c.Count
	}
	assert.Equal(t, map[string]int{"Career": 2, "<nil>": 1}, byLabel)

	empty, err := f.decisions.AuthorTotals(ctx, carol.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.Decisions)
	assert.Zero(t, empty.Up)
}

func TestDecisionRepo_DeleteRemovesChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", nil)
	d := f.decision(t, alice, "Adopt a cat?", nil)

	_, _, err := f.votes.Toggle(ctx, d.ID, alice.ID, models.VoteUp)
	require.NoError(t, err)
	require.NoError(t, f.comments.Create(ctx, &models.Comment{DecisionID: d.ID, UserID: alice.ID, Comment: "yes"}))

	counts, err := f.decisions.CommentCounts(ctx, []uuid.UUID{d.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[d.ID])

	require.NoError(t, f.decisions.Delete(ctx, d.ID))
	assert.ErrorIs(t, f.decisions.Delete(ctx, d.ID), ErrNotFound)

	_, err = f.decisions.Get(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var votes, comments int64
	f.db.Model(&models.Vote{}).Count(&votes)
	f.db.Model(&models.Comment{}).Count(&comments)
	assert.Zero(t, votes)
	assert.Zero(t, comments)
}

func TestCommentRepo_ListOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", nil)
	d := f.decision(t, alice, "Paint the kitchen?", nil)

	for _, text := range []string{"first", "second"} {
		c := &models.Comment{DecisionID: d.ID, UserID: alice.ID, Comment: text}
		require.NoError(t, f.comments.Create(ctx, c))
		assert.Equal(t, "alice", c.User.Username)
		time.Sleep(5 * time.Millisecond)
	}

	list, err := f.comments.List(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Comment)
}

func TestUserRepo_Taken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice", nil)

	taken, err := f.users.Taken(ctx, "alice", "new@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = f.users.Taken(ctx, "carol", "carol@example.com")
	require.NoError(t, err)
	assert.False(t, taken)

	err = f.users.Create(ctx, &models.User{Username: "alice", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)
}
