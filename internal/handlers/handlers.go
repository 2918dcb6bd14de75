package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emilythestrangee/decision-board/backend/internal/logging"
	"github.com/emilythestrangee/decision-board/backend/internal/middleware"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
	"github.com/emilythestrangee/decision-board/backend/internal/service"
	"github.com/emilythestrangee/decision-board/backend/internal/storage"
)

// Decisions is the decision, vote and comment surface the handlers call.
type Decisions interface {
	Feed(ctx context.Context, viewer *int, q service.FeedQuery) (models.DecisionPage, error)
	Mine(ctx context.Context, userID, page int) (models.DecisionPage, error)
	Get(ctx context.Context, id uuid.UUID, viewer *int) (models.DecisionView, error)
	Create(ctx context.Context, userID int, req models.CreateDecisionRequest, image *service.Upload) (models.DecisionView, error)
	Update(ctx context.Context, userID int, id uuid.UUID, req models.UpdateDecisionRequest) (models.DecisionView, error)
	Delete(ctx context.Context, userID int, id uuid.UUID) error
	Dashboard(ctx context.Context, userID int) (models.Dashboard, error)
	Vote(ctx context.Context, userID int, id uuid.UUID, vt models.VoteType) (models.VoteResult, error)
	Breakdown(ctx context.Context, id uuid.UUID) (models.GenderBreakdown, error)
	Comments(ctx context.Context, id uuid.UUID) ([]models.CommentView, error)
	AddComment(ctx context.Context, userID int, id uuid.UUID, req models.CreateCommentRequest) (models.CommentView, error)
}

// Accounts is the registration, login and profile surface.
type Accounts interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error)
	Profile(ctx context.Context, id int) (models.User, error)
	UpdateProfile(ctx context.Context, id int, upd models.ProfileUpdate) (models.User, error)
	UpdateAvatar(ctx context.Context, id int, img service.Upload) (models.User, error)
}

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Decision *DecisionHandler
	Vote     *VoteHandler
	Comment  *CommentHandler
	User     *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers. maxUpload caps
// multipart request bodies.
func NewHandler(decisions Decisions, accounts Accounts, maxUpload int64) *Handler {
	return &Handler{
		Auth:     &AuthHandler{accounts: accounts},
		Decision: &DecisionHandler{decisions: decisions, maxUpload: maxUpload},
		Vote:     &VoteHandler{decisions: decisions},
		Comment:  &CommentHandler{decisions: decisions},
		User:     &UserHandler{accounts: accounts, maxUpload: maxUpload},
	}
}

// Error codes returned next to the human-readable message.
const (
	CodeInvalidInput       = "invalid_input"
	CodeNotFound           = "not_found"
	CodeForbidden          = "forbidden"
	CodeDecisionClosed     = "decision_closed"
	CodeVoteConflict       = "vote_conflict"
	CodeInvalidCredentials = "invalid_credentials"
	CodeAccountExists      = "account_exists"
	CodeStorageDisabled    = "storage_disabled"
	CodeInternal           = "internal"
)

func respondError(c *gin.Context, err error) {
	status, code, msg := http.StatusInternalServerError, CodeInternal, "Internal server error"
	switch {
	case errors.Is(err, service.ErrNotFound):
		status, code, msg = http.StatusNotFound, CodeNotFound, "Not found"
	case errors.Is(err, service.ErrForbidden):
		status, code, msg = http.StatusForbidden, CodeForbidden, "You can only modify your own decisions"
	case errors.Is(err, service.ErrDecisionClosed):
		status, code, msg = http.StatusConflict, CodeDecisionClosed, "Voting on this decision has closed"
	case errors.Is(err, service.ErrVoteConflict):
		status, code, msg = http.StatusConflict, CodeVoteConflict, "Another vote is being recorded, try again"
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, storage.ErrUnsupportedType):
		status, code, msg = http.StatusBadRequest, CodeInvalidInput, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		status, code, msg = http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password"
	case errors.Is(err, service.ErrAccountExists):
		status, code, msg = http.StatusConflict, CodeAccountExists, "Username or email already exists"
	case errors.Is(err, service.ErrStorageDisabled):
		status, code, msg = http.StatusServiceUnavailable, CodeStorageDisabled, "Image uploads are not available"
	default:
		logging.Logger.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": CodeInvalidInput})
}

func decisionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid decision ID")
		return uuid.Nil, false
	}
	return id, true
}

// mustUser reads the authenticated user. Protected routes always have one.
func mustUser(c *gin.Context) (int, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "code": middleware.CodeAuthRequired})
	}
	return id, ok
}

func pageParam(c *gin.Context) int {
	p, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// formImage returns the named multipart file as an upload, or nil when the
// request carries none.
func formImage(c *gin.Context, field string) (*service.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*service.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	up := &service.Upload{Reader: f, Size: fh.Size, ContentType: fh.Header.Get("Content-Type")}
	return up, func() { f.Close() }, nil
}
