package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/livepoll/livepoll/internal/core/domain"
	"github.com/livepoll/livepoll/internal/core/ports"
)

type PollHandler struct {
	service ports.PollService
}

func NewPollHandler(service ports.PollService) *PollHandler {
	return &PollHandler{
		service: service,
	}
}

type createPollRequest struct {
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	MultipleChoice bool     `json:"multiple_choice"`
	CorrectOption  *int     `json:"correct_option"`
	CorrectOptions []int    `json:"correct_options"`
}

func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}

	input := ports.CreatePollInput{
		Question:       req.Question,
		Options:        req.Options,
		MultipleChoice: req.MultipleChoice,
		CorrectOption:  req.CorrectOption,
		CorrectOptions: req.CorrectOptions,
	}

	poll, err := h.service.Create(r.Context(), session, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, poll)
}

func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.service.ListPolls(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	session, _ := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, redactPolls(polls, session))
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	id, err := pollID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	poll, err := h.service.GetPoll(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	session, _ := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, redactPoll(poll, session))
}

func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.Delete(r.Context(), session, id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pollID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidPollID
	}
	return id, nil
}

// redactPoll strips voter attribution from everyone but the poll's creator:
// the per-voter breakdown is a creator-facing detail view.
func redactPoll(poll *domain.Poll, session domain.Session) *domain.Poll {
	if poll.IsCreator(session.UserID) {
		return poll
	}
	return poll.WithoutAttribution()
}

func redactPolls(polls []*domain.Poll, session domain.Session) []*domain.Poll {
	redacted := make([]*domain.Poll, len(polls))
	for i, poll := range polls {
		redacted[i] = redactPoll(poll, session)
	}
	return redacted
}
