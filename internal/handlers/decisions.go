package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/decision-board/backend/internal/middleware"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
	"github.com/emilythestrangee/decision-board/backend/internal/service"
)

type DecisionHandler struct {
	decisions Decisions
	maxUpload int64
}

// GetDecisions returns the public feed, optionally filtered by category and
// a title search.
func (h *DecisionHandler) GetDecisions(c *gin.Context) {
	q := service.FeedQuery{
		Category: c.Query("category"),
		Search:   c.Query("q"),
		Page:     pageParam(c),
	}
	if q.Category != "" && !models.ValidCategory(q.Category) {
		badRequest(c, "Unknown category")
		return
	}
	page, err := h.decisions.Feed(c.Request.Context(), middleware.Viewer(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *DecisionHandler) GetDecision(c *gin.Context) {
	id, ok := decisionID(c)
	if !ok {
		return
	}
	d, err := h.decisions.Get(c.Request.Context(), id, middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// CreateDecision accepts JSON or a multipart form with an optional image.
func (h *DecisionHandler) CreateDecision(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	var req models.CreateDecisionRequest
	if err := c.ShouldBind(&req); err != nil {
		if tooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large", "code": CodeInvalidInput})
			return
		}
		badRequest(c, "Title is required")
		return
	}

	var image *service.Upload
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		up, closeFn, err := formImage(c, "image")
		if err != nil {
			badRequest(c, "Could not read image")
			return
		}
		defer closeFn()
		image = up
	}

	d, err := h.decisions.Create(c.Request.Context(), userID, req, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DecisionHandler) UpdateDecision(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := decisionID(c)
	if !ok {
		return
	}
	var req models.UpdateDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	d, err := h.decisions.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DecisionHandler) DeleteDecision(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := decisionID(c)
	if !ok {
		return
	}
	if err := h.decisions.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Decision deleted successfully"})
}

func (h *DecisionHandler) GetMyDecisions(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	page, err := h.decisions.Mine(c.Request.Context(), userID, pageParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *DecisionHandler) GetDashboard(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	d, err := h.decisions.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
