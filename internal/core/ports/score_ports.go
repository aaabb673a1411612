package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/livepoll/livepoll/internal/core/domain"
)

type ScoreRepository interface {
	// Increment creates the user's score row at 1 or adds 1 to it.
	Increment(ctx context.Context, userID uuid.UUID, username string) error
	Top(ctx context.Context, limit int) ([]*domain.Score, error)
}

type LeaderboardService interface {
	Top(ctx context.Context, limit int) ([]*domain.Score, error)
}
