// Package service implements the decision board operations on top of the
// repositories, object storage, cache and event publisher.
package service

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
	"github.com/emilythestrangee/decision-board/backend/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrDecisionClosed     = errors.New("decision is closed for voting")
	ErrVoteConflict       = errors.New("concurrent vote on the same decision")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("username or email already exists")
	ErrStorageDisabled    = errors.New("image storage is not configured")
)

// PageSize is the number of decisions per listing page.
const PageSize = 20

// Upload is an image received from a client.
type Upload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// ImageStore persists uploaded images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, prefix string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// BreakdownCache caches gender breakdowns per decision.
type BreakdownCache interface {
	Breakdown(ctx context.Context, id uuid.UUID) (b models.GenderBreakdown, ver int64, ok bool, err error)
	SetBreakdown(ctx context.Context, id uuid.UUID, ver int64, b models.GenderBreakdown) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

func mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func offset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * PageSize
}
