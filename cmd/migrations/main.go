package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/livepoll/livepoll/internal/adapters/repository/postgres"
)

// Migration runner: applies every up migration in ascending order, or the
// down migrations in descending order with -down. Passing migration names
// as arguments restricts the run to files matching them.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found")
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	dir := flag.String("dir", filepath.Join("internal", "adapters", "repository", "postgres", "migrations"), "migrations directory")
	down := flag.Bool("down", false, "apply down migrations instead of up")
	flag.Parse()

	db, err := sql.Open("postgres", postgres.ConnStringFromEnv())
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	files, err := migrationFiles(*dir, *down, flag.Args())
	if err != nil {
		logger.Error("failed to resolve migration files", "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		logger.Error("no matching migration files", "dir", *dir)
		os.Exit(1)
	}

	for _, name := range files {
		content, err := os.ReadFile(filepath.Join(*dir, name))
		if err != nil {
			logger.Error("failed to read migration", "file", name, "error", err)
			os.Exit(1)
		}
		if _, err := db.Exec(string(content)); err != nil {
			logger.Error("failed to execute migration", "file", name, "error", err)
			os.Exit(1)
		}
		logger.Info("migration applied", "file", name)
	}
}

// migrationFiles returns the files to run, in execution order. Up
// migrations run oldest first; down migrations unwind newest first.
func migrationFiles(dir string, down bool, names []string) ([]string, error) {
	suffix := ".up.sql"
	if down {
		suffix = ".down.sql"
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		if len(names) > 0 && !matchesAny(entry.Name(), names) {
			continue
		}
		files = append(files, entry.Name())
	}

	sort.Strings(files)
	if down {
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}
	return files, nil
}

func matchesAny(file string, names []string) bool {
	for _, name := range names {
		if strings.Contains(file, name) {
			return true
		}
	}
	return false
}
