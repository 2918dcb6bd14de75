// Package client is a typed HTTP client for the decision board API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

// ErrAuthRequired is matched by every 401 response. Callers should prompt
// the user to sign in.
var ErrAuthRequired = errors.New("sign-in required")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrAuthRequired
	}
	return nil
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error) {
	var res models.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/register", req, &res); err != nil {
		return res, err
	}
	c.SetToken(res.Token)
	return res, nil
}

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	var res models.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", req, &res); err != nil {
		return res, err
	}
	c.SetToken(res.Token)
	return res, nil
}

func (c *Client) Me(ctx context.Context) (models.User, error) {
	var u models.User
	err := c.doJSON(ctx, http.MethodGet, "/api/me", nil, &u)
	return u, err
}

func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.User, error) {
	var u models.User
	err := c.doJSON(ctx, http.MethodPut, "/api/me/profile", upd, &u)
	return u, err
}

// User fetches another user's public profile. Contact fields stay empty.
func (c *Client) User(ctx context.Context, id int) (models.User, error) {
	var u models.User
	err := c.doJSON(ctx, http.MethodGet, "/api/users/"+strconv.Itoa(id), nil, &u)
	return u, err
}

// Image is a file to upload alongside a request.
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

func (c *Client) UploadAvatar(ctx context.Context, img Image) (models.User, error) {
	body, contentType, err := multipartBody(nil, "avatar", &img)
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	err = c.do(ctx, http.MethodPost, "/api/me/avatar", body, contentType, &u)
	return u, err
}

type FeedQuery struct {
	Category string
	Search   string
	Page     int
}

func (c *Client) Feed(ctx context.Context, q FeedQuery) (models.DecisionPage, error) {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	path := "/api/decisions"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var page models.DecisionPage
	err := c.doJSON(ctx, http.MethodGet, path, nil, &page)
	return page, err
}

func (c *Client) MyDecisions(ctx context.Context, page int) (models.DecisionPage, error) {
	var p models.DecisionPage
	err := c.doJSON(ctx, http.MethodGet, "/api/me/decisions?page="+strconv.Itoa(max(page, 1)), nil, &p)
	return p, err
}

func (c *Client) Decision(ctx context.Context, id uuid.UUID) (models.DecisionView, error) {
	var d models.DecisionView
	err := c.doJSON(ctx, http.MethodGet, "/api/decisions/"+id.String(), nil, &d)
	return d, err
}

// CreateDecision posts JSON, or a multipart form when image is set.
func (c *Client) CreateDecision(ctx context.Context, req models.CreateDecisionRequest, image *Image) (models.DecisionView, error) {
	var d models.DecisionView
	if image == nil {
		err := c.doJSON(ctx, http.MethodPost, "/api/decisions", req, &d)
		return d, err
	}

	fields := map[string]string{
		"title":       req.Title,
		"description": req.Description,
		"category":    req.Category,
	}
	if req.ExpiresAt != nil {
		fields["expires_at"] = req.ExpiresAt.Format(time.RFC3339)
	}
	body, contentType, err := multipartBody(fields, "image", image)
	if err != nil {
		return d, err
	}
	err = c.do(ctx, http.MethodPost, "/api/decisions", body, contentType, &d)
	return d, err
}

func (c *Client) UpdateDecision(ctx context.Context, id uuid.UUID, req models.UpdateDecisionRequest) (models.DecisionView, error) {
	var d models.DecisionView
	err := c.doJSON(ctx, http.MethodPut, "/api/decisions/"+id.String(), req, &d)
	return d, err
}

func (c *Client) DeleteDecision(ctx context.Context, id uuid.UUID) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/decisions/"+id.String(), nil, nil)
}

// Vote sends one toggle request and returns the server-confirmed tally.
func (c *Client) Vote(ctx context.Context, id uuid.UUID, vt models.VoteType) (models.VoteResult, error) {
	var res models.VoteResult
	err := c.doJSON(ctx, http.MethodPost, "/api/decisions/"+id.String()+"/vote", models.VoteRequest{VoteType: vt}, &res)
	return res, err
}

func (c *Client) Breakdown(ctx context.Context, id uuid.UUID) (models.GenderBreakdown, error) {
	var b models.GenderBreakdown
	err := c.doJSON(ctx, http.MethodGet, "/api/decisions/"+id.String()+"/breakdown", nil, &b)
	return b, err
}

func (c *Client) Comments(ctx context.Context, id uuid.UUID) ([]models.CommentView, error) {
	var list []models.CommentView
	err := c.doJSON(ctx, http.MethodGet, "/api/decisions/"+id.String()+"/comments", nil, &list)
	return list, err
}

func (c *Client) AddComment(ctx context.Context, id uuid.UUID, text string) (models.CommentView, error) {
	var cv models.CommentView
	err := c.doJSON(ctx, http.MethodPost, "/api/decisions/"+id.String()+"/comments", models.CreateCommentRequest{Comment: text}, &cv)
	return cv, err
}

func (c *Client) Dashboard(ctx context.Context) (models.Dashboard, error) {
	var d models.Dashboard
	err := c.doJSON(ctx, http.MethodGet, "/api/me/dashboard", nil, &d)
	return d, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message, apiErr.Code = body.Error, body.Code
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}

func multipartBody(fields map[string]string, fileField string, img *Image) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, img.Filename))
	hdr.Set("Content-Type", img.ContentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, img.Body); err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
