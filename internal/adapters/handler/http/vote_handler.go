package http

import (
	"encoding/json"
	"net/http"

	"github.com/livepoll/livepoll/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
}

func NewVoteHandler(service ports.VoteService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteRequest struct {
	SelectedOptions []int `json:"selected_options"`
}

func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	id, err := pollID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}

	votes, err := h.service.Vote(r.Context(), session, ports.VoteInput{
		PollID:          id,
		SelectedOptions: req.SelectedOptions,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, votes)
}

func (h *VoteHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	id, err := pollID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	record, err := h.service.MyVote(r.Context(), session, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}
