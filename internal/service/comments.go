package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/emilythestrangee/decision-board/backend/internal/events"
	"github.com/emilythestrangee/decision-board/backend/internal/metrics"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

func (s *DecisionService) Comments(ctx context.Context, id uuid.UUID) ([]models.CommentView, error) {
	if _, err := s.decisions.Get(ctx, id); err != nil {
		return nil, mapRepoErr(err)
	}
	list, err := s.comments.List(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]models.CommentView, 0, len(list))
	for _, c := range list {
		out = append(out, c.View())
	}
	return out, nil
}

func (s *DecisionService) AddComment(ctx context.Context, userID int, id uuid.UUID, req models.CreateCommentRequest) (models.CommentView, error) {
	text := strings.TrimSpace(req.Comment)
	if text == "" {
		return models.CommentView{}, fmt.Errorf("%w: comment is empty", ErrInvalidInput)
	}
	if _, err := s.decisions.Get(ctx, id); err != nil {
		return models.CommentView{}, mapRepoErr(err)
	}

	c := models.Comment{DecisionID: id, UserID: userID, Comment: text, ParentID: req.ParentID}
	if err := s.comments.Create(ctx, &c); err != nil {
		return models.CommentView{}, err
	}
	metrics.CommentsCreated.Inc()
	s.publish(events.Event{Kind: events.CommentAdded, DecisionID: id, UserID: userID})
	return c.View(), nil
}
