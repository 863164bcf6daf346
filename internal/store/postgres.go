package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/webhookd/internal/models"
)

// Byte-order collation keeps ORDER BY ts, message_id identical to SQLite.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		message_id TEXT COLLATE "C" PRIMARY KEY,
		from_number TEXT COLLATE "C" NOT NULL,
		to_number TEXT NOT NULL,
		ts TEXT COLLATE "C" NOT NULL,
		text TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_from ON messages(from_number)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages(ts, message_id)`,
}

// readSnapshot gives count and page queries the same view of the table.
var readSnapshot = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string, logger zerolog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("init postgres schema: %w", err)
		}
	}

	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// HealthCheck runs a trivial read. Any failure is logged and reported as false.
func (s *PostgresStore) HealthCheck(ctx context.Context) bool {
	if s == nil || s.pool == nil {
		return false
	}
	var one int
	if err := s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		s.logger.Error().Err(err).Str("driver", "postgres").Msg("database health check failed")
		return false
	}
	return one == 1
}

// InsertMessage stores msg unless a row with the same message_id exists.
func (s *PostgresStore) InsertMessage(ctx context.Context, msg models.Message) (InsertOutcome, error) {
	defer observe("postgres", "insert", time.Now())

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO messages (message_id, from_number, to_number, ts, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id) DO NOTHING
	`, msg.MessageID, msg.FromNumber, msg.ToNumber, msg.Timestamp, msg.Text, newCreatedAt())
	if err != nil {
		return 0, fmt.Errorf("insert message %q: %w", msg.MessageID, err)
	}
	if tag.RowsAffected() == 0 {
		return DuplicateIgnored, nil
	}
	return Inserted, nil
}

// GetMessage retrieves a message, including created_at, by ID.
func (s *PostgresStore) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	msg := &models.Message{}
	err := s.pool.QueryRow(ctx, `
		SELECT message_id, from_number, to_number, ts, text, created_at
		FROM messages WHERE message_id = $1
	`, messageID).Scan(
		&msg.MessageID,
		&msg.FromNumber,
		&msg.ToNumber,
		&msg.Timestamp,
		&msg.Text,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// ListMessages returns one page of messages matching filter and the filtered total.
func (s *PostgresStore) ListMessages(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	defer observe("postgres", "list", time.Now())

	filter = filter.Normalized()
	countSQL, countArgs, pageSQL, pageArgs := postgresDialect.listQueries(filter)

	tx, err := s.pool.BeginTx(ctx, readSnapshot)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	var total int64
	if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	rows, err := tx.Query(ctx, pageSQL, pageArgs...)
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

	return messages, int(total), nil
}

// Stats aggregates the stored messages in a single snapshot.
func (s *PostgresStore) Stats(ctx context.Context) (*models.Stats, error) {
	defer observe("postgres", "stats", time.Now())

	tx, err := s.pool.BeginTx(ctx, readSnapshot)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	stats := &models.Stats{}
	err = tx.QueryRow(ctx, statsSummarySQL).Scan(
		&stats.TotalMessages,
		&stats.SendersCount,
		&stats.FirstMessageTS,
		&stats.LastMessageTS,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize messages: %w", err)
	}

	rows, err := tx.Query(ctx, postgresDialect.topSendersSQL(), models.TopSendersLimit)
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
