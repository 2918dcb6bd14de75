package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Categories a decision may be filed under.
var Categories = []string{"Career", "Finance", "Education", "Lifestyle", "Technology", "Health"}

// UncategorizedLabel groups decisions without a category in statistics.
const UncategorizedLabel = "Other"

func ValidCategory(c string) bool {
	return slices.Contains(Categories, c)
}

type DecisionStatus string

const (
	StatusPending   DecisionStatus = "pending"
	StatusDecided   DecisionStatus = "decided"
	StatusCompleted DecisionStatus = "completed"
)

type Decision struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      int            `gorm:"not null;index" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"-"`
	Title       string         `gorm:"type:varchar(300);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Category    *string        `gorm:"type:varchar(32);index" json:"category"`
	ImageURL    *string        `json:"image_url"`
	Status      DecisionStatus `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	ExpiresAt   *time.Time     `json:"expires_at"`
	Votes       []Vote         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Comments    []Comment      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (d *Decision) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Closed reports whether the decision's voting window has ended at now.
func (d Decision) Closed(now time.Time) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.After(now)
}

type CreateDecisionRequest struct {
	Title       string     `form:"title" json:"title" binding:"required,max=300"`
	Description string     `form:"description" json:"description"`
	Category    string     `form:"category" json:"category"`
	ExpiresAt   *time.Time `form:"expires_at" json:"expires_at" time_format:"2006-01-02T15:04:05Z07:00"`
}

type UpdateDecisionRequest struct {
	Title       *string         `json:"title" binding:"omitempty,max=300"`
	Description *string         `json:"description"`
	Category    *string         `json:"category"`
	Status      *DecisionStatus `json:"status" binding:"omitempty,oneof=pending decided completed"`
}

// DecisionView is a decision joined with its read-time aggregates.
type DecisionView struct {
	ID           uuid.UUID      `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Category     *string        `json:"category"`
	ImageURL     *string        `json:"image_url"`
	Status       DecisionStatus `json:"status"`
	ExpiresAt    *time.Time     `json:"expires_at"`
	Author       Author         `json:"author"`
	Votes        Tally          `json:"votes"`
	CommentCount int            `json:"comment_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Closed mirrors Decision.Closed for views held by clients.
func (v DecisionView) Closed(now time.Time) bool {
	return v.ExpiresAt != nil && !v.ExpiresAt.After(now)
}

type DecisionPage struct {
	Decisions []DecisionView `json:"decisions"`
	Page      int            `json:"page"`
	HasMore   bool           `json:"has_more"`
}

// Dashboard summarizes a user's own decisions.
type Dashboard struct {
	TotalDecisions int            `json:"total_decisions"`
	TotalUp        int            `json:"total_up"`
	TotalDown      int            `json:"total_down"`
	TotalComments  int            `json:"total_comments"`
	Categories     map[string]int `json:"categories"`
	Trend          []TrendPoint   `json:"trend"`
}

type TrendPoint struct {
	DecisionID uuid.UUID `json:"decision_id"`
	Title      string    `json:"title"`
	Up         int       `json:"up"`
	Down       int       `json:"down"`
}
