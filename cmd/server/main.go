package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/livepoll/livepoll/internal/adapters/handler/http"
	"github.com/livepoll/livepoll/internal/adapters/notifier/webhook"
	"github.com/livepoll/livepoll/internal/adapters/repository/postgres"
	"github.com/livepoll/livepoll/internal/core/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	connStr := postgres.ConnStringFromEnv()
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Println("Warning: JWT_SECRET not set")
	}

	pollRepo := postgres.NewPollRepository(db)
	voteRepo := postgres.NewVoteRepository(db)
	scoreRepo := postgres.NewScoreRepository(db)
	userRepo := postgres.NewUserRepository(db)
	notifier := webhook.NewNotifier(os.Getenv("NOTIFY_URL"), os.Getenv("NOTIFY_TOKEN"))

	pollService := services.NewPollService(pollRepo, voteRepo, userRepo, notifier, logger)
	voteService := services.NewVoteService(pollRepo, voteRepo, scoreRepo, logger)
	leaderboard := services.NewLeaderboardService(scoreRepo)

	feed := postgres.NewChangeFeed(connStr, logger)
	defer feed.Close()
	watch := services.NewWatchService(feed, pollRepo, scoreRepo, logger)

	handler := http.NewHandler(http.Handlers{
		Poll:        http.NewPollHandler(pollService),
		Vote:        http.NewVoteHandler(voteService),
		Leaderboard: http.NewLeaderboardHandler(leaderboard),
		Events:      http.NewEventsHandler(watch),
		Auth:        http.NewAuthHandler(),
	}, []byte(jwtSecret))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &stdhttp.Server{Addr: "0.0.0.0:" + port, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := watch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("change propagation stopped", "error", err)
		}
	}()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	fmt.Println("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
