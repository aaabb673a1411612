package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/livepoll/livepoll/internal/core/domain"
	"github.com/livepoll/livepoll/internal/core/ports"
)

type scoreRepository struct {
	db *sql.DB
}

func NewScoreRepository(db *sql.DB) ports.ScoreRepository {
	return &scoreRepository{
		db: db,
	}
}

func (r *scoreRepository) Increment(ctx context.Context, userID uuid.UUID, username string) error {
	query := `
		INSERT INTO scores (user_id, username, score)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id) DO UPDATE
		SET score = scores.score + 1
	`
	if _, err := r.db.ExecContext(ctx, query, userID, username); err != nil {
		return fmt.Errorf("failed to increment score: %w", err)
	}
	return nil
}

func (r *scoreRepository) Top(ctx context.Context, limit int) ([]*domain.Score, error) {
	query := `
		SELECT user_id, username, score
		FROM scores
		ORDER BY score DESC, username
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top scores: %w", err)
	}
	defer rows.Close()

	return scanScores(rows)
}

func scanScores(rows *sql.Rows) ([]*domain.Score, error) {
	var scores []*domain.Score
	for rows.Next() {
		var score domain.Score
		if err := rows.Scan(&score.UserID, &score.Username, &score.Score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, &score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}
	return scores, nil
}
