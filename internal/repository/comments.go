package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// Create inserts the comment and reloads it with its author.
func (r *CommentRepo) Create(ctx context.Context, c *models.Comment) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", translate(err))
	}
	if err := db.Preload("User").First(c, "id = ?", c.ID).Error; err != nil {
		return fmt.Errorf("reload comment: %w", translate(err))
	}
	return nil
}

// List returns a decision's comments oldest first.
func (r *CommentRepo) List(ctx context.Context, decisionID uuid.UUID) ([]models.Comment, error) {
	var out []models.Comment
	err := r.db.WithContext(ctx).
		Where("decision_id = ?", decisionID).
		Preload("User").
		Order("created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}
