package feed

import (
	"context"

	"github.com/google/uuid"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

// BreakdownSource reads a decision's gender breakdown.
type BreakdownSource interface {
	Breakdown(ctx context.Context, id uuid.UUID) (models.GenderBreakdown, error)
}

// Breakdown fetches the breakdown for display. On failure it returns zero
// counts alongside the error so callers can render an empty chart.
func Breakdown(ctx context.Context, src BreakdownSource, id uuid.UUID) (models.GenderBreakdown, error) {
	b, err := src.Breakdown(ctx, id)
	if err != nil {
		return models.GenderBreakdown{}, err
	}
	return b, nil
}
