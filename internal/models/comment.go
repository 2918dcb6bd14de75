package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DecisionID uuid.UUID  `gorm:"type:uuid;not null;index" json:"decision_id"`
	UserID     int        `gorm:"not null" json:"user_id"`
	User       User       `gorm:"foreignKey:UserID" json:"-"`
	Comment    string     `gorm:"type:text;not null" json:"comment"`
	ParentID   *uuid.UUID `gorm:"type:uuid" json:"parent_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Comment) TableName() string { return "decision_comments" }

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CreateCommentRequest struct {
	Comment  string     `json:"comment" binding:"required,max=2000"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

type CommentView struct {
	ID         uuid.UUID  `json:"id"`
	DecisionID uuid.UUID  `json:"decision_id"`
	Comment    string     `json:"comment"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	Author     Author     `json:"author"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (c Comment) View() CommentView {
	return CommentView{
		ID:         c.ID,
		DecisionID: c.DecisionID,
		Comment:    c.Comment,
		ParentID:   c.ParentID,
		Author:     c.User.Author(),
		CreatedAt:  c.CreatedAt,
	}
}
