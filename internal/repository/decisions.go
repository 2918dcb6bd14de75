package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
	"github.com/emilythestrangee/decision-board/backend/internal/voting"
)

type DecisionRepo struct {
	db *gorm.DB
}

func NewDecisionRepo(db *gorm.DB) *DecisionRepo {
	return &DecisionRepo{db: db}
}

// ListFilter narrows a decision listing. Zero values mean no filter.
type ListFilter struct {
	AuthorID   int
	Categories []string
	Search     string
	Offset     int
	Limit      int
}

func (r *DecisionRepo) Create(ctx context.Context, d *models.Decision) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("create decision: %w", translate(err))
	}
	return nil
}

func (r *DecisionRepo) Get(ctx context.Context, id uuid.UUID) (*models.Decision, error) {
	var d models.Decision
	if err := r.db.WithContext(ctx).Preload("User").First(&d, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("get decision %s: %w", id, translate(err))
	}
	return &d, nil
}

// List returns decisions newest first.
func (r *DecisionRepo) List(ctx context.Context, f ListFilter) ([]models.Decision, error) {
	q := r.db.WithContext(ctx).Preload("User").Order("created_at desc")
	if f.AuthorID != 0 {
		q = q.Where("user_id = ?", f.AuthorID)
	}
	if len(f.Categories) > 0 {
		q = q.Where("category = ANY(?)", pq.Array(f.Categories))
	}
	if f.Search != "" {
		like := "%" + likePattern(f.Search) + "%"
		q = q.Where(`title ILIKE ? ESCAPE '\' OR description ILIKE ? ESCAPE '\'`, like, like)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []models.Decision
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern escapes s so ILIKE matches it literally.
func likePattern(s string) string {
	return likeEscaper.Replace(s)
}

func (r *DecisionRepo) Update(ctx context.Context, d *models.Decision) error {
	err := r.db.WithContext(ctx).Model(d).
		Select("title", "description", "category", "status", "image_url").
		Updates(d).Error
	if err != nil {
		return fmt.Errorf("update decision %s: %w", d.ID, translate(err))
	}
	return nil
}

// Delete removes a decision together with its votes and comments.
func (r *DecisionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("decision_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("delete votes: %w", err)
		}
		if err := tx.Where("decision_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		res := tx.Delete(&models.Decision{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("delete decision: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CommentCounts returns the number of comments per decision. Decisions
// without comments are absent from the map.
func (r *DecisionRepo) CommentCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		DecisionID uuid.UUID
		Count      int
	}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("decision_id, count(*) AS count").
		Where("decision_id IN ?", ids).
		Group("decision_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	for _, row := range rows {
		out[row.DecisionID] = row.Count
	}
	return out, nil
}

// AuthorTotals aggregates every decision userID has posted, with the votes
// and comments those decisions received.
func (r *DecisionRepo) AuthorTotals(ctx context.Context, userID int) (voting.Totals, error) {
	db := r.db.WithContext(ctx)
	var t voting.Totals

	var cats []voting.CategoryCount
	err := db.Model(&models.Decision{}).
		Select("category, count(*) AS count").
		Where("user_id = ?", userID).
		Group("category").
		Scan(&cats).Error
	if err != nil {
		return t, fmt.Errorf("count decisions: %w", err)
	}
	for _, c := range cats {
		t.Decisions += c.Count
	}
	t.Categories = cats

	var votes struct{ Up, Down int }
	err = db.Model(&models.Vote{}).
		Select(`COALESCE(SUM(CASE WHEN decision_votes.vote_type = 'up' THEN 1 ELSE 0 END), 0) AS up,
			COALESCE(SUM(CASE WHEN decision_votes.vote_type = 'down' THEN 1 ELSE 0 END), 0) AS down`).
		Joins("JOIN decisions ON decisions.id = decision_votes.decision_id").
		Where("decisions.user_id = ?", userID).
		Scan(&votes).Error
	if err != nil {
		return t, fmt.Errorf("count votes: %w", err)
	}
	t.Up, t.Down = votes.Up, votes.Down

	var comments int64
	err = db.Model(&models.Comment{}).
		Joins("JOIN decisions ON decisions.id = decision_comments.decision_id").
		Where("decisions.user_id = ?", userID).
		Count(&comments).Error
	if err != nil {
		return t, fmt.Errorf("count comments: %w", err)
	}
	t.Comments = int(comments)
	return t, nil
}
