package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/livepoll/livepoll/internal/core/domain"
	"github.com/livepoll/livepoll/internal/core/ports"
)

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	votes, err := json.Marshal(poll.Votes)
	if err != nil {
		return fmt.Errorf("failed to marshal votes: %w", err)
	}

	var creatorID uuid.NullUUID
	if poll.CreatorID != nil {
		creatorID = uuid.NullUUID{UUID: *poll.CreatorID, Valid: true}
	}
	var correctOption sql.NullInt64
	if poll.CorrectOption != nil {
		correctOption = sql.NullInt64{Int64: int64(*poll.CorrectOption), Valid: true}
	}

	query := `
		INSERT INTO questions (question, options, multiple_choice, correct_option, correct_options, creator_id, votes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err = r.db.QueryRowContext(ctx, query,
		poll.Question,
		pq.Array(poll.Options),
		poll.MultipleChoice,
		correctOption,
		pq.Array(intsToInt64(poll.CorrectOptions)),
		creatorID,
		votes,
	).Scan(&poll.ID, &poll.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}
	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id int64) (*domain.Poll, error) {
	query := `
		SELECT id, question, options, multiple_choice, correct_option, correct_options, creator_id, votes, created_at
		FROM questions
		WHERE id = $1
	`
	poll, err := scanPoll(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return poll, nil
}

func (r *pollRepository) GetAll(ctx context.Context) ([]*domain.Poll, error) {
	query := `
		SELECT id, question, options, multiple_choice, correct_option, correct_options, creator_id, votes, created_at
		FROM questions
		ORDER BY id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all polls: %w", err)
	}
	defer rows.Close()

	var polls []*domain.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}
	return polls, nil
}

func (r *pollRepository) UpdateVotes(ctx context.Context, id int64, votes domain.VoteMap) error {
	payload, err := json.Marshal(votes)
	if err != nil {
		return fmt.Errorf("failed to marshal votes: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `UPDATE questions SET votes = $2 WHERE id = $1`, id, payload)
	if err != nil {
		return fmt.Errorf("failed to update votes: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrPollNotFound
	}
	return nil
}

func (r *pollRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrPollNotFound
	}
	return nil
}

// DeleteWithVotes removes the poll's vote records and the poll row in one
// transaction: either both disappear or neither does.
func (r *pollRepository) DeleteWithVotes(ctx context.Context, id int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM user_votes WHERE question_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete vote records: %w", err)
	}
	votesDeleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	result, err = tx.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete poll: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return 0, domain.ErrPollNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return votesDeleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (*domain.Poll, error) {
	var (
		poll           domain.Poll
		options        pq.StringArray
		correctOption  sql.NullInt64
		correctOptions pq.Int64Array
		creatorID      uuid.NullUUID
		votes          []byte
	)
	err := row.Scan(
		&poll.ID,
		&poll.Question,
		&options,
		&poll.MultipleChoice,
		&correctOption,
		&correctOptions,
		&creatorID,
		&votes,
		&poll.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	poll.Options = options
	if correctOption.Valid {
		index := int(correctOption.Int64)
		poll.CorrectOption = &index
	}
	poll.CorrectOptions = int64sToInts(correctOptions)
	if creatorID.Valid {
		id := creatorID.UUID
		poll.CreatorID = &id
	}
	if err := json.Unmarshal(votes, &poll.Votes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal votes: %w", err)
	}
	return &poll, nil
}

func intsToInt64(values []int) []int64 {
	if values == nil {
		return nil
	}
	converted := make([]int64, len(values))
	for i, v := range values {
		converted[i] = int64(v)
	}
	return converted
}

func int64sToInts(values []int64) []int {
	if len(values) == 0 {
		return nil
	}
	converted := make([]int, len(values))
	for i, v := range values {
		converted[i] = int(v)
	}
	return converted
}
