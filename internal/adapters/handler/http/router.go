package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Poll        *PollHandler
	Vote        *VoteHandler
	Leaderboard *LeaderboardHandler
	Events      *EventsHandler
	Auth        *AuthHandler
}

func NewHandler(h Handlers, jwtSecret []byte) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	optionalSession := SessionMiddleware(jwtSecret, false)
	requireSession := SessionMiddleware(jwtSecret, true)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalSession)
			r.Get("/polls", h.Poll.ListPolls)
			r.Get("/polls/{id}", h.Poll.GetPoll)
			r.Get("/events", h.Events.Stream)
			r.Get("/leaderboard", h.Leaderboard.Top)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Post("/polls", h.Poll.CreatePoll)
			r.Delete("/polls/{id}", h.Poll.DeletePoll)
			r.Post("/polls/{id}/votes", h.Vote.VoteOnPoll)
			r.Get("/polls/{id}/votes/me", h.Vote.MyVote)
		})

		r.Post("/auth/logout", h.Auth.Logout)
	})

	return r
}
