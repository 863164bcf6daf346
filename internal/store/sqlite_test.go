package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "app.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSQLiteStore(t *testing.T) {
	runMessageStoreSuite(t, func(t *testing.T) MessageStore {
		return newTestSQLiteStore(t)
	})
}

func TestSQLiteStoreHealthCheckAfterClose(t *testing.T) {
	s := newTestSQLiteStore(t)
	s.Close()
	if s.HealthCheck(context.Background()) {
		t.Fatal("expected closed store to report unhealthy")
	}
}

func TestSQLiteStoreReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(ctx, path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	mustInsert(t, s, newMessage("m1", "+1", "2025-01-01T00:00:00Z", nil))
	s.Close()

	s, err = NewSQLiteStore(ctx, path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	outcome, err := s.InsertMessage(ctx, newMessage("m1", "+1", "2025-01-01T00:00:00Z", nil))
	if err != nil {
		t.Fatalf("insert after reopen: %v", err)
	}
	if outcome != DuplicateIgnored {
		t.Fatalf("expected duplicate after reopen, got %s", outcome)
	}
}
