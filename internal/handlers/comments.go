package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

type CommentHandler struct {
	decisions Decisions
}

func (h *CommentHandler) GetComments(c *gin.Context) {
	id, ok := decisionID(c)
	if !ok {
		return
	}
	comments, err := h.decisions.Comments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := decisionID(c)
	if !ok {
		return
	}
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Comment is required")
		return
	}
	comment, err := h.decisions.AddComment(c.Request.Context(), userID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
