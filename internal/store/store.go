package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/webhookd/internal/metrics"
	"github.com/eldtechnologies/webhookd/internal/models"
)

// ErrUnsupportedDatabaseURL is returned by Open for unknown URL schemes.
var ErrUnsupportedDatabaseURL = errors.New("unsupported database URL")

// createdAtLayout renders created_at as ISO-8601 UTC with microseconds and a trailing Z.
const createdAtLayout = "2006-01-02T15:04:05.000000Z"

// InsertOutcome reports what InsertMessage did with a message.
type InsertOutcome int

const (
	Inserted InsertOutcome = iota + 1
	DuplicateIgnored
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case DuplicateIgnored:
		return "duplicate_ignored"
	default:
		return "unknown"
	}
}

// MessageStore defines the interface for persistent storage of webhook messages.
// Both SQLiteStore and PostgresStore implement this interface.
type MessageStore interface {
	// Connection management
	Close()
	HealthCheck(ctx context.Context) bool

	// Message operations
	InsertMessage(ctx context.Context, msg models.Message) (InsertOutcome, error)
	GetMessage(ctx context.Context, messageID string) (*models.Message, error)
	ListMessages(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// Open connects to the store named by databaseURL.
// Supported forms: sqlite:///relative/or/absolute/path.db and postgres://...
func Open(ctx context.Context, databaseURL string, logger zerolog.Logger) (MessageStore, error) {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite:///"):
		path, err := SQLitePath(databaseURL)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(ctx, path, logger)
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgresStore(ctx, databaseURL, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDatabaseURL, redactURL(databaseURL))
	}
}

// SQLitePath extracts the database file path from a sqlite:/// URL.
// sqlite:////data/app.db yields /data/app.db, sqlite:///./app.db yields ./app.db.
func SQLitePath(databaseURL string) (string, error) {
	if !strings.HasPrefix(databaseURL, "sqlite:///") {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDatabaseURL, redactURL(databaseURL))
	}
	path := strings.TrimPrefix(databaseURL, "sqlite:///")
	if path == "" {
		return "", fmt.Errorf("%w: missing sqlite path", ErrUnsupportedDatabaseURL)
	}
	return path, nil
}

// redactURL drops everything after the scheme so credentials never reach logs.
func redactURL(u string) string {
	if i := strings.Index(u, "://"); i >= 0 {
		return u[:i+3] + "..."
	}
	return "<unparsed>"
}

func newCreatedAt() string {
	return time.Now().UTC().Format(createdAtLayout)
}

func observe(driver, op string, start time.Time) {
	metrics.StoreLatency.WithLabelValues(driver, op).Observe(time.Since(start).Seconds())
}
