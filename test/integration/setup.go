package integration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	handler "github.com/livepoll/livepoll/internal/adapters/handler/http"
	"github.com/livepoll/livepoll/internal/adapters/notifier/webhook"
	repo "github.com/livepoll/livepoll/internal/adapters/repository/postgres"
	"github.com/livepoll/livepoll/internal/core/domain"
	"github.com/livepoll/livepoll/internal/core/ports"
	"github.com/livepoll/livepoll/internal/core/services"
)

const testJWTSecret = "test-secret"

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dirPath, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Client      *http.Client
	DBContainer testcontainers.Container
	Repair      *services.RepairService
	Users       ports.UserRepository

	notifyServer *httptest.Server
	stopWatch    context.CancelFunc
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()
	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	require.NoError(t, applyMigrations(db))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Swallow poll-created notifications; the dispatch endpoint is not
	// under test here.
	notifyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	pollRepo := repo.NewPollRepository(db)
	voteRepo := repo.NewVoteRepository(db)
	scoreRepo := repo.NewScoreRepository(db)
	userRepo := repo.NewUserRepository(db)
	notifier := webhook.NewNotifier(notifyServer.URL, "")

	pollSvc := services.NewPollService(pollRepo, voteRepo, userRepo, notifier, logger)
	voteSvc := services.NewVoteService(pollRepo, voteRepo, scoreRepo, logger)
	leaderboardSvc := services.NewLeaderboardService(scoreRepo)
	repairSvc := services.NewRepairService(pollRepo, voteRepo, userRepo, logger)

	feed := repo.NewChangeFeed(dbURL, logger)
	watch := services.NewWatchService(feed, pollRepo, scoreRepo, logger)
	watchCtx, stopWatch := context.WithCancel(ctx)
	go func() {
		_ = watch.Run(watchCtx)
	}()

	router := handler.NewHandler(handler.Handlers{
		Poll:        handler.NewPollHandler(pollSvc),
		Vote:        handler.NewVoteHandler(voteSvc),
		Leaderboard: handler.NewLeaderboardHandler(leaderboardSvc),
		Events:      handler.NewEventsHandler(watch),
		Auth:        handler.NewAuthHandler(),
	}, []byte(testJWTSecret))

	server := httptest.NewServer(router)

	return &TestApp{
		DB:           db,
		Server:       server,
		Client:       server.Client(),
		DBContainer:  dbContainer,
		Repair:       repairSvc,
		Users:        userRepo,
		notifyServer: notifyServer,
		stopWatch:    stopWatch,
	}
}

func (app *TestApp) createUserAndToken(t *testing.T) (uuid.UUID, string) {
	t.Helper()

	userID := uuid.New()
	email := fmt.Sprintf("user-%s@example.com", userID)
	user := &domain.User{ID: userID, Email: email, Name: fmt.Sprintf("User %s", userID)}
	require.NoError(t, app.Users.Create(context.Background(), user))

	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"exp":   time.Now().Add(15 * time.Minute).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return userID, signedToken
}

func (app *TestApp) Teardown(t *testing.T) {
	app.stopWatch()
	app.Server.Close()
	app.notifyServer.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}
