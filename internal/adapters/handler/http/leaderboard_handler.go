package http

import (
	"net/http"
	"strconv"

	"github.com/livepoll/livepoll/internal/core/ports"
)

type LeaderboardHandler struct {
	service ports.LeaderboardService
}

func NewLeaderboardHandler(service ports.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
	}
}

func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	scores, err := h.service.Top(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scores)
}
