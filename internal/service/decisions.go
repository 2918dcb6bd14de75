package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emilythestrangee/decision-board/backend/internal/cache"
	"github.com/emilythestrangee/decision-board/backend/internal/events"
	"github.com/emilythestrangee/decision-board/backend/internal/logging"
	"github.com/emilythestrangee/decision-board/backend/internal/metrics"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
	"github.com/emilythestrangee/decision-board/backend/internal/repository"
	"github.com/emilythestrangee/decision-board/backend/internal/storage"
	"github.com/emilythestrangee/decision-board/backend/internal/voting"
)

type DecisionService struct {
	decisions *repository.DecisionRepo
	votes     *repository.VoteRepo
	comments  *repository.CommentRepo
	images    ImageStore
	cache     BreakdownCache
	events    events.Publisher
	now       func() time.Time
}

// NewDecisionService wires the service. images may be nil, in which case
// image uploads are rejected. A nil cache or publisher disables them.
func NewDecisionService(db *gorm.DB, images ImageStore, bc BreakdownCache, pub events.Publisher) *DecisionService {
	if bc == nil {
		bc = &cache.Cache{}
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &DecisionService{
		decisions: repository.NewDecisionRepo(db),
		votes:     repository.NewVoteRepo(db),
		comments:  repository.NewCommentRepo(db),
		images:    images,
		cache:     bc,
		events:    pub,
		now:       time.Now,
	}
}

type FeedQuery struct {
	Category string
	Search   string
	Page     int
}

// Feed lists everyone's decisions newest first.
func (s *DecisionService) Feed(ctx context.Context, viewer *int, q FeedQuery) (models.DecisionPage, error) {
	f := repository.ListFilter{
		Search: strings.TrimSpace(q.Search),
		Offset: offset(q.Page),
		Limit:  PageSize,
	}
	if q.Category != "" {
		f.Categories = []string{q.Category}
	}
	return s.page(ctx, viewer, f, q.Page)
}

// Mine lists the viewer's own decisions.
func (s *DecisionService) Mine(ctx context.Context, userID, page int) (models.DecisionPage, error) {
	f := repository.ListFilter{AuthorID: userID, Offset: offset(page), Limit: PageSize}
	return s.page(ctx, &userID, f, page)
}

func (s *DecisionService) page(ctx context.Context, viewer *int, f repository.ListFilter, page int) (models.DecisionPage, error) {
	if page < 1 {
		page = 1
	}
	list, err := s.decisions.List(ctx, f)
	if err != nil {
		return models.DecisionPage{}, err
	}
	views, err := s.views(ctx, list, viewer)
	if err != nil {
		return models.DecisionPage{}, err
	}
	return models.DecisionPage{Decisions: views, Page: page, HasMore: len(list) == PageSize}, nil
}

func (s *DecisionService) Get(ctx context.Context, id uuid.UUID, viewer *int) (models.DecisionView, error) {
	d, err := s.decisions.Get(ctx, id)
	if err != nil {
		return models.DecisionView{}, mapRepoErr(err)
	}
	views, err := s.views(ctx, []models.Decision{*d}, viewer)
	if err != nil {
		return models.DecisionView{}, err
	}
	return views[0], nil
}

// views joins decisions with their read-time vote tallies and comment
// counts. Missing aggregates default to zero.
func (s *DecisionService) views(ctx context.Context, list []models.Decision, viewer *int) ([]models.DecisionView, error) {
	ids := make([]uuid.UUID, len(list))
	for i, d := range list {
		ids[i] = d.ID
	}
	ballots, err := s.votes.Ballots(ctx, ids)
	if err != nil {
		return nil, err
	}
	counts, err := s.decisions.CommentCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.DecisionView, 0, len(list))
	for _, d := range list {
		out = append(out, models.DecisionView{
			ID:           d.ID,
			Title:        d.Title,
			Description:  d.Description,
			Category:     d.Category,
			ImageURL:     d.ImageURL,
			Status:       d.Status,
			ExpiresAt:    d.ExpiresAt,
			Author:       d.User.Author(),
			Votes:        voting.Tally(ballots[d.ID], viewer),
			CommentCount: counts[d.ID],
			CreatedAt:    d.CreatedAt,
			UpdatedAt:    d.UpdatedAt,
		})
	}
	return out, nil
}

// Create posts a decision, uploading its image first when one is given.
func (s *DecisionService) Create(ctx context.Context, userID int, req models.CreateDecisionRequest, image *Upload) (models.DecisionView, error) {
	d := models.Decision{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      models.StatusPending,
		ExpiresAt:   req.ExpiresAt,
	}
	if d.Title == "" {
		return models.DecisionView{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if req.Category != "" {
		if !models.ValidCategory(req.Category) {
			return models.DecisionView{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, req.Category)
		}
		d.Category = &req.Category
	}

	if image != nil {
		if s.images == nil {
			return models.DecisionView{}, ErrStorageDisabled
		}
		url, err := s.images.Upload(ctx, storage.PrefixDecisions, image.Reader, image.Size, image.ContentType)
		if err != nil {
			return models.DecisionView{}, err
		}
		d.ImageURL = &url
	}

	if err := s.decisions.Create(ctx, &d); err != nil {
		if d.ImageURL != nil {
			s.dropImage(ctx, *d.ImageURL)
		}
		return models.DecisionView{}, err
	}
	metrics.DecisionsCreated.Inc()
	s.publish(events.Event{Kind: events.DecisionCreated, DecisionID: d.ID, UserID: userID})

	return s.Get(ctx, d.ID, &userID)
}

// Update edits an owned decision.
func (s *DecisionService) Update(ctx context.Context, userID int, id uuid.UUID, req models.UpdateDecisionRequest) (models.DecisionView, error) {
	d, err := s.owned(ctx, userID, id)
	if err != nil {
		return models.DecisionView{}, err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		d.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.Category != nil {
		switch {
		case *req.Category == "":
			d.Category = nil
		case models.ValidCategory(*req.Category):
			d.Category = req.Category
		default:
			return models.DecisionView{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, *req.Category)
		}
	}
	if req.Status != nil {
		d.Status = *req.Status
	}
	if err := s.decisions.Update(ctx, d); err != nil {
		return models.DecisionView{}, mapRepoErr(err)
	}
	return s.Get(ctx, id, &userID)
}

// Delete removes an owned decision with its votes, comments and image.
func (s *DecisionService) Delete(ctx context.Context, userID int, id uuid.UUID) error {
	d, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.decisions.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	if d.ImageURL != nil {
		s.dropImage(ctx, *d.ImageURL)
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		logging.Logger.Warn().Err(err).Msg("cache: invalidate after delete")
	}
	s.publish(events.Event{Kind: events.DecisionDeleted, DecisionID: id, UserID: userID})
	return nil
}

func (s *DecisionService) owned(ctx context.Context, userID int, id uuid.UUID) (*models.Decision, error) {
	d, err := s.decisions.Get(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if d.UserID != userID {
		return nil, ErrForbidden
	}
	return d, nil
}

// Dashboard summarizes the user's own decisions.
func (s *DecisionService) Dashboard(ctx context.Context, userID int) (models.Dashboard, error) {
	totals, err := s.decisions.AuthorTotals(ctx, userID)
	if err != nil {
		return models.Dashboard{}, err
	}
	list, err := s.decisions.List(ctx, repository.ListFilter{AuthorID: userID, Limit: voting.TrendSize})
	if err != nil {
		return models.Dashboard{}, err
	}
	views, err := s.views(ctx, list, &userID)
	if err != nil {
		return models.Dashboard{}, err
	}
	return voting.Summarize(totals, views), nil
}

func (s *DecisionService) dropImage(ctx context.Context, url string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		logging.Logger.Warn().Err(err).Msg("storage: delete image")
	}
}

func (s *DecisionService) publish(e events.Event) {
	if err := s.events.Publish(e); err != nil {
		logging.Logger.Warn().Err(err).Str("kind", string(e.Kind)).Msg("events: publish failed")
	}
}
