package store

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// Set TEST_DATABASE_URL to a disposable PostgreSQL database to run these tests.
func TestPostgresStore(t *testing.T) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	runMessageStoreSuite(t, func(t *testing.T) MessageStore {
		t.Helper()
		ctx := context.Background()

		s, err := NewPostgresStore(ctx, databaseURL, zerolog.Nop())
		if err != nil {
			t.Fatalf("connect postgres: %v", err)
		}
		if _, err := s.pool.Exec(ctx, `TRUNCATE messages`); err != nil {
			s.Close()
			t.Fatalf("truncate messages: %v", err)
		}
		t.Cleanup(s.Close)
		return s
	})
}
