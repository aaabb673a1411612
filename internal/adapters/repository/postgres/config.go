package postgres

import (
	"fmt"
	"os"
)

// ConnString builds the DSN every binary dials with.
func ConnString(user, password, host, port, dbName string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbName)
}

// ConnStringFromEnv assembles the DSN from the POSTGRES_* environment
// variables shared across the server, the migration runner and the repair
// job.
func ConnStringFromEnv() string {
	return ConnString(
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_PORT"),
		os.Getenv("POSTGRES_DB"),
	)
}
