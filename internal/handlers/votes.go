package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

type VoteHandler struct {
	decisions Decisions
}

// VoteDecision toggles the caller's vote and returns the confirmed tally.
func (h *VoteHandler) VoteDecision(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := decisionID(c)
	if !ok {
		return
	}
	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "vote_type must be 'up' or 'down'")
		return
	}
	res, err := h.decisions.Vote(c.Request.Context(), userID, id, req.VoteType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *VoteHandler) GetBreakdown(c *gin.Context) {
	id, ok := decisionID(c)
	if !ok {
		return
	}
	b, err := h.decisions.Breakdown(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
