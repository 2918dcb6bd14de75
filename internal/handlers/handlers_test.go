package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/decision-board/backend/internal/middleware"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
	"github.com/emilythestrangee/decision-board/backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeDecisions embeds the interface so tests only stub what they call.
type fakeDecisions struct {
	Decisions

	feedViewer *int
	feedQuery  service.FeedQuery
	created    models.CreateDecisionRequest
	image      []byte
	imageType  string
	voteErr    error
	deleteErr  error
}

func (f *fakeDecisions) Feed(_ context.Context, viewer *int, q service.FeedQuery) (models.DecisionPage, error) {
	f.feedViewer, f.feedQuery = viewer, q
	return models.DecisionPage{Decisions: []models.DecisionView{}, Page: q.Page}, nil
}

func (f *fakeDecisions) Create(_ context.Context, userID int, req models.CreateDecisionRequest, image *service.Upload) (models.DecisionView, error) {
	f.created = req
	if image != nil {
		f.image, _ = io.ReadAll(image.Reader)
		f.imageType = image.ContentType
	}
	return models.DecisionView{ID: uuid.New(), Title: req.Title, Author: models.Author{ID: userID}}, nil
}

func (f *fakeDecisions) Delete(context.Context, int, uuid.UUID) error { return f.deleteErr }

func (f *fakeDecisions) Vote(_ context.Context, _ int, _ uuid.UUID, vt models.VoteType) (models.VoteResult, error) {
	if f.voteErr != nil {
		return models.VoteResult{}, f.voteErr
	}
	return models.VoteResult{Action: models.VoteCreated, Votes: models.Tally{Up: 1, UserVote: &vt}}, nil
}

type fakeAccounts struct {
	Accounts
}

func (fakeAccounts) Login(context.Context, models.LoginRequest) (models.AuthResponse, error) {
	return models.AuthResponse{}, service.ErrInvalidCredentials
}

func (fakeAccounts) Profile(_ context.Context, id int) (models.User, error) {
	if id != 1 {
		return models.User{}, service.ErrNotFound
	}
	return models.User{ID: 1, Username: "alice", Email: "alice@example.com", PhoneNumber: "555"}, nil
}

func newTestRouter(d Decisions, a Accounts, userID *int) *gin.Engine {
	h := NewHandler(d, a, 1<<20)
	r := gin.New()
	if userID != nil {
		r.Use(func(c *gin.Context) { c.Set(middleware.UserIDKey, *userID); c.Next() })
	}
	r.GET("/api/decisions", h.Decision.GetDecisions)
	r.POST("/api/decisions", h.Decision.CreateDecision)
	r.DELETE("/api/decisions/:id", h.Decision.DeleteDecision)
	r.POST("/api/decisions/:id/vote", h.Vote.VoteDecision)
	r.POST("/api/login", h.Auth.Login)
	r.GET("/api/users/:id", h.User.GetUserProfile)
	r.PUT("/api/me/profile", h.User.UpdateProfile)
	r.POST("/api/me/avatar", h.User.UploadAvatar)
	return r
}

func do(r http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestVoteDecision(t *testing.T) {
	uid := 1
	d := &fakeDecisions{}
	r := newTestRouter(d, fakeAccounts{}, &uid)
	path := "/api/decisions/" + uuid.NewString() + "/vote"

	w := do(r, http.MethodPost, path, strings.NewReader(`{"vote_type":"up"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	var res models.VoteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, models.VoteCreated, res.Action)
	assert.Equal(t, 1, res.Votes.Up)

	w = do(r, http.MethodPost, path, strings.NewReader(`{"vote_type":"sideways"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/decisions/not-a-uuid/vote", strings.NewReader(`{"vote_type":"up"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	d.voteErr = service.ErrDecisionClosed
	w = do(r, http.MethodPost, path, strings.NewReader(`{"vote_type":"up"}`), "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeDecisionClosed, errorCode(t, w))
}

func TestVoteDecision_Unauthenticated(t *testing.T) {
	r := newTestRouter(&fakeDecisions{}, fakeAccounts{}, nil)
	w := do(r, http.MethodPost, "/api/decisions/"+uuid.NewString()+"/vote", strings.NewReader(`{"vote_type":"up"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, middleware.CodeAuthRequired, errorCode(t, w))
}

func TestGetDecisions_Query(t *testing.T) {
	uid := 4
	d := &fakeDecisions{}
	r := newTestRouter(d, fakeAccounts{}, &uid)

	w := do(r, http.MethodGet, "/api/decisions?category=Career&q=job&page=3", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"decisions":[],"page":3,"has_more":false}`, w.Body.String())
	assert.Equal(t, service.FeedQuery{Category: "Career", Search: "job", Page: 3}, d.feedQuery)
	require.NotNil(t, d.feedViewer)
	assert.Equal(t, 4, *d.feedViewer)

	w = do(r, http.MethodGet, "/api/decisions?category=Astrology", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateDecision_Multipart(t *testing.T) {
	uid := 1
	d := &fakeDecisions{}
	r := newTestRouter(d, fakeAccounts{}, &uid)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Rent or buy?"))
	require.NoError(t, mw.WriteField("category", "Finance"))
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="house.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := do(r, http.MethodPost, "/api/decisions", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Rent or buy?", d.created.Title)
	assert.Equal(t, "Finance", d.created.Category)
	assert.Equal(t, []byte("fake png"), d.image)
	assert.Equal(t, "image/png", d.imageType)
}

func TestCreateDecision_JSON(t *testing.T) {
	uid := 1
	d := &fakeDecisions{}
	r := newTestRouter(d, fakeAccounts{}, &uid)

	w := do(r, http.MethodPost, "/api/decisions", strings.NewReader(`{"title":"Learn Go?"}`), "application/json")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, d.image)

	w = do(r, http.MethodPost, "/api/decisions", strings.NewReader(`{"description":"no title"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteDecision_Forbidden(t *testing.T) {
	uid := 2
	r := newTestRouter(&fakeDecisions{deleteErr: service.ErrForbidden}, fakeAccounts{}, &uid)
	w := do(r, http.MethodDelete, "/api/decisions/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, CodeForbidden, errorCode(t, w))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	r := newTestRouter(&fakeDecisions{}, fakeAccounts{}, nil)
	w := do(r, http.MethodPost, "/api/login", strings.NewReader(`{"email":"a@b.c","password":"nope"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeInvalidCredentials, errorCode(t, w))
}

func TestGetUserProfile_HidesContactDetails(t *testing.T) {
	r := newTestRouter(&fakeDecisions{}, fakeAccounts{}, nil)

	w := do(r, http.MethodGet, "/api/users/1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	assert.NotContains(t, w.Body.String(), "alice@example.com")
	assert.NotContains(t, w.Body.String(), "555")

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/users/2", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/users/abc", nil, "").Code)
}

func TestUploadAvatar_MissingFile(t *testing.T) {
	uid := 1
	r := newTestRouter(&fakeDecisions{}, fakeAccounts{}, &uid)
	w := do(r, http.MethodPost, "/api/me/avatar", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type profileAccounts struct {
	fakeAccounts
	got *models.ProfileUpdate
}

func (a *profileAccounts) UpdateProfile(_ context.Context, id int, upd models.ProfileUpdate) (models.User, error) {
	a.got = &upd
	if upd.Gender != nil && *upd.Gender == "robot" {
		return models.User{}, service.ErrInvalidInput
	}
	return models.User{ID: id, Username: "alice", Gender: nil}, nil
}

func TestUpdateProfile_EmptyGenderClears(t *testing.T) {
	uid := 1
	accounts := &profileAccounts{}
	r := newTestRouter(&fakeDecisions{}, accounts, &uid)

	w := do(r, http.MethodPut, "/api/me/profile", strings.NewReader(`{"gender":""}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, accounts.got)
	require.NotNil(t, accounts.got.Gender)
	assert.Equal(t, "", *accounts.got.Gender)

	w = do(r, http.MethodPut, "/api/me/profile", strings.NewReader(`{"gender":"robot"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidInput, errorCode(t, w))
}
