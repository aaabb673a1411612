package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrInvalidPollID = errors.New("invalid poll id")
	ErrDuplicateVote = errors.New("user has already voted on this poll")
	ErrNotVoted      = errors.New("user has not voted on this poll")
	ErrForbidden     = errors.New("only the poll creator may do this")
)

// ValidationError marks malformed client input: the caller should re-prompt
// the user, nothing was written.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// StorageError marks a transient infrastructure failure during a read or
// write. A caller whose submission timed out must re-check for an existing
// vote record before retrying: the write may have landed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PartialDeletionError reports a poll deletion that removed the poll's vote
// records but failed to remove the poll row itself. The caller should retry
// only the poll delete; the children are already gone.
type PartialDeletionError struct {
	PollID       int64
	VotesDeleted int64
	Err          error
}

func (e *PartialDeletionError) Error() string {
	return fmt.Sprintf("poll %d: deleted %d vote records but poll delete failed: %v", e.PollID, e.VotesDeleted, e.Err)
}

func (e *PartialDeletionError) Unwrap() error {
	return e.Err
}
