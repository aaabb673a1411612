package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/livepoll/livepoll/internal/core/domain"
)

type errorResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	VotesDeleted *int64 `json:"votes_deleted,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

// writeDomainError maps the service error taxonomy onto HTTP statuses.
// Nothing reaches the client as an opaque failure.
func writeDomainError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		writeError(w, http.StatusBadRequest, "validation", validation.Reason)
		return
	}

	var partial *domain.PartialDeletionError
	if errors.As(err, &partial) {
		// Distinct from a plain storage error: the vote records are gone,
		// only the poll row remains. Retry should skip the children.
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:        "partial_deletion",
			Message:      "vote records were deleted but the poll itself was not; retry the poll delete",
			VotesDeleted: &partial.VotesDeleted,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidPollID):
		writeError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, domain.ErrPollNotFound), errors.Is(err, domain.ErrNotVoted):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrDuplicateVote):
		writeError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		var storage *domain.StorageError
		if errors.As(err, &storage) {
			slog.Error("storage failure", "op", storage.Op, "error", storage.Err)
		} else {
			slog.Error("unexpected error", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "storage", "operation failed, please retry")
	}
}
