package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/webhookd/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/app.db"
func NewSQLiteStore(ctx context.Context, dbPath string, logger zerolog.Logger) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/app.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL lets readers proceed during writes; busy_timeout makes concurrent writers wait
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db, logger: logger}

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		message_id TEXT PRIMARY KEY,
		from_number TEXT NOT NULL,
		to_number TEXT NOT NULL,
		ts TEXT NOT NULL,
		text TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_from ON messages(from_number);
	CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages(ts, message_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// HealthCheck runs a trivial read. Any failure is logged and reported as false.
func (s *SQLiteStore) HealthCheck(ctx context.Context) bool {
	if s == nil || s.db == nil {
		return false
	}
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		s.logger.Error().Err(err).Str("driver", "sqlite").Msg("database health check failed")
		return false
	}
	return one == 1
}

// InsertMessage stores msg unless a row with the same message_id exists.
// The primary key decides between concurrent inserts of one id.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg models.Message) (InsertOutcome, error) {
	defer observe("sqlite", "insert", time.Now())

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (message_id, from_number, to_number, ts, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO NOTHING
	`, msg.MessageID, msg.FromNumber, msg.ToNumber, msg.Timestamp, msg.Text, newCreatedAt())
	if err != nil {
		return 0, fmt.Errorf("insert message %q: %w", msg.MessageID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert message %q: %w", msg.MessageID, err)
	}
	if affected == 0 {
		return DuplicateIgnored, nil
	}
	return Inserted, nil
}

// GetMessage retrieves a message, including created_at, by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	msg := &models.Message{}
	err := s.db.QueryRowContext(ctx, `
		SELECT message_id, from_number, to_number, ts, text, created_at
		FROM messages WHERE message_id = ?
	`, messageID).Scan(
		&msg.MessageID,
		&msg.FromNumber,
		&msg.ToNumber,
		&msg.Timestamp,
		&msg.Text,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// ListMessages returns one page of messages matching filter, ordered by (ts, message_id),
// and the number of matching rows before paging. Both reads share one transaction.
func (s *SQLiteStore) ListMessages(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	defer observe("sqlite", "list", time.Now())

	filter = filter.Normalized()
	countSQL, countArgs, pageSQL, pageArgs := sqliteDialect.listQueries(filter)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	rows, err := tx.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0, filter.Limit)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// Stats aggregates the stored messages in a single read transaction.
func (s *SQLiteStore) Stats(ctx context.Context) (*models.Stats, error) {
	defer observe("sqlite", "stats", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stats := &models.Stats{}
	err = tx.QueryRowContext(ctx, statsSummarySQL).Scan(
		&stats.TotalMessages,
		&stats.SendersCount,
		&stats.FirstMessageTS,
		&stats.LastMessageTS,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize messages: %w", err)
	}

	rows, err := tx.QueryContext(ctx, sqliteDialect.topSendersSQL(), models.TopSendersLimit)
	if err != nil {
		return nil, fmt.Errorf("top senders: %w", err)
	}
	defer rows.Close()

	stats.MessagesPerSender = make([]models.SenderCount, 0, models.TopSendersLimit)
	for rows.Next() {
		var sc models.SenderCount
		if err := rows.Scan(&sc.From, &sc.Count); err != nil {
			return nil, err
		}
		stats.MessagesPerSender = append(stats.MessagesPerSender, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
