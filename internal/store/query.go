package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eldtechnologies/webhookd/internal/models"
)

// dialect captures the SQL differences between the supported engines.
type dialect struct {
	placeholder func(n int) string
	contains    func(column, arg string) string
}

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	// instr is case-sensitive, unlike LIKE; NULL text yields NULL and never matches
	contains: func(column, arg string) string { return "instr(" + column + ", " + arg + ") > 0" },
}

var postgresDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	contains:    func(column, arg string) string { return "strpos(" + column + ", " + arg + ") > 0" },
}

const messageColumns = "message_id, from_number, to_number, ts, text"

// filterClause builds the WHERE clause for f. Filters combine with AND.
func (d dialect) filterClause(f models.MessageFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(v any, cond func(arg string) string) {
		args = append(args, v)
		conds = append(conds, cond(d.placeholder(len(args))))
	}

	if f.From != "" {
		add(f.From, func(arg string) string { return "from_number = " + arg })
	}
	if f.Since != "" {
		// fixed-width ISO-8601 with Z compares correctly as a string
		add(f.Since, func(arg string) string { return "ts >= " + arg })
	}
	if f.Q != "" {
		add(f.Q, func(arg string) string { return d.contains("text", arg) })
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// listQueries returns the count query and the page query for f, with their arguments.
// f must already be normalized.
func (d dialect) listQueries(f models.MessageFilter) (countSQL string, countArgs []any, pageSQL string, pageArgs []any) {
	where, args := d.filterClause(f)

	countSQL = "SELECT COUNT(*) FROM messages" + where

	n := len(args)
	pageSQL = fmt.Sprintf(
		"SELECT %s FROM messages%s ORDER BY ts ASC, message_id ASC LIMIT %s OFFSET %s",
		messageColumns, where, d.placeholder(n+1), d.placeholder(n+2),
	)
	pageArgs = make([]any, 0, n+2)
	pageArgs = append(pageArgs, args...)
	pageArgs = append(pageArgs, f.Limit, f.Offset)

	return countSQL, args, pageSQL, pageArgs
}

const statsSummarySQL = `SELECT COUNT(*), COUNT(DISTINCT from_number), MIN(ts), MAX(ts) FROM messages`

func (d dialect) topSendersSQL() string {
	return `
		SELECT from_number, COUNT(*) AS message_count
		FROM messages
		GROUP BY from_number
		ORDER BY message_count DESC, from_number ASC
		LIMIT ` + d.placeholder(1)
}

// rowScanner is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (models.Message, error) {
	var msg models.Message
	err := row.Scan(
		&msg.MessageID,
		&msg.FromNumber,
		&msg.ToNumber,
		&msg.Timestamp,
		&msg.Text,
	)
	return msg, err
}
