package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/livepoll/livepoll/internal/core/domain"
	"github.com/livepoll/livepoll/internal/core/ports"
)

// Unique-violation SQLSTATE, raised by the (user_id, question_id) primary
// key. This constraint is the authoritative duplicate-vote guard.
const uniqueViolation = "23505"

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRecordRepository {
	return &voteRepository{
		db: db,
	}
}

func (r *voteRepository) Exists(ctx context.Context, userID uuid.UUID, pollID int64) (bool, error) {
	query := `SELECT 1 FROM user_votes WHERE user_id = $1 AND question_id = $2 LIMIT 1`
	var exists int
	err := r.db.QueryRowContext(ctx, query, userID, pollID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existing vote: %w", err)
	}
	return true, nil
}

func (r *voteRepository) Find(ctx context.Context, userID uuid.UUID, pollID int64) (*domain.VoteRecord, error) {
	query := `
		SELECT selected_options, created_at
		FROM user_votes
		WHERE user_id = $1 AND question_id = $2
	`
	record := domain.VoteRecord{UserID: userID, QuestionID: pollID}
	var selected pq.Int64Array
	err := r.db.QueryRowContext(ctx, query, userID, pollID).Scan(&selected, &record.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find vote: %w", err)
	}
	record.SelectedOptions = int64sToInts(selected)
	return &record, nil
}

// Commit writes the vote record and the tally update as one transaction.
// The poll row is locked for the duration, so the read-modify-write over the
// votes map serializes against concurrent voters instead of losing updates;
// the primary key on user_votes stays the duplicate backstop.
func (r *voteRepository) Commit(ctx context.Context, record *domain.VoteRecord, voter domain.Voter) (domain.VoteMap, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var payload []byte
	err = tx.QueryRowContext(ctx, `SELECT votes FROM questions WHERE id = $1 FOR UPDATE`, record.QuestionID).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to lock poll row: %w", err)
	}

	var votes domain.VoteMap
	if err := json.Unmarshal(payload, &votes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal votes: %w", err)
	}
	updated := votes.Apply(record.SelectedOptions, voter)

	insert := `
		INSERT INTO user_votes (user_id, question_id, selected_options)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	err = tx.QueryRowContext(ctx, insert,
		record.UserID,
		record.QuestionID,
		pq.Array(intsToInt64(record.SelectedOptions)),
	).Scan(&record.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, domain.ErrDuplicateVote
		}
		return nil, fmt.Errorf("failed to insert vote record: %w", err)
	}

	serialized, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal votes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE questions SET votes = $2 WHERE id = $1`, record.QuestionID, serialized); err != nil {
		return nil, fmt.Errorf("failed to update tally: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

func (r *voteRepository) ListForPoll(ctx context.Context, pollID int64) ([]*domain.VoteRecord, error) {
	query := `
		SELECT user_id, question_id, selected_options, created_at
		FROM user_votes
		WHERE question_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var records []*domain.VoteRecord
	for rows.Next() {
		var record domain.VoteRecord
		var selected pq.Int64Array
		if err := rows.Scan(&record.UserID, &record.QuestionID, &selected, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		record.SelectedOptions = int64sToInts(selected)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}
	return records, nil
}

func (r *voteRepository) DeleteAllForPoll(ctx context.Context, pollID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_votes WHERE question_id = $1`, pollID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete votes: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return deleted, nil
}
