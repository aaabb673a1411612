package services

import (
	"context"

	"github.com/livepoll/livepoll/internal/core/domain"
	"github.com/livepoll/livepoll/internal/core/ports"
)

type leaderboardService struct {
	scoreRepo ports.ScoreRepository
}

func NewLeaderboardService(scoreRepo ports.ScoreRepository) ports.LeaderboardService {
	return &leaderboardService{scoreRepo: scoreRepo}
}

func (s *leaderboardService) Top(ctx context.Context, limit int) ([]*domain.Score, error) {
	if limit <= 0 || limit > 100 {
		limit = leaderboardSize
	}
	return s.scoreRepo.Top(ctx, limit)
}
