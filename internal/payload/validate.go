// Package payload decodes and validates inbound webhook message envelopes.
package payload

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eldtechnologies/webhookd/internal/models"
)

// MaxTextLength is the longest accepted text, in characters.
const MaxTextLength = 4096

// e164Regex matches a leading + followed by one or more ASCII digits.
var e164Regex = regexp.MustCompile(`^\+[0-9]+$`)

// Kind distinguishes validation failures for diagnostics.
type Kind int

const (
	KindMalformedJSON Kind = iota + 1
	KindSchema
)

func (k Kind) String() string {
	switch k {
	case KindMalformedJSON:
		return "malformed_json"
	case KindSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// Error describes why a payload was rejected.
type Error struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("payload: %s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("payload: %s: %s: %s", e.Kind, e.Field, e.Reason)
}

func schemaError(field, reason string) *Error {
	return &Error{Kind: KindSchema, Field: field, Reason: reason}
}

// Validate decodes raw JSON into a Message. The wire keys "from" and "to" map to
// FromNumber and ToNumber. Any rejection is returned as *Error.
func Validate(raw []byte) (models.Message, error) {
	// encoding/json would replace bad bytes with U+FFFD and store text that differs from what was signed
	if !utf8.Valid(raw) {
		return models.Message{}, &Error{Kind: KindMalformedJSON, Reason: "body is not valid UTF-8"}
	}
	if !json.Valid(raw) {
		return models.Message{}, &Error{Kind: KindMalformedJSON, Reason: "body is not valid JSON"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.Message{}, &Error{Kind: KindMalformedJSON, Reason: "body must be a JSON object"}
	}

	messageID, err := requiredString(fields, "message_id")
	if err != nil {
		return models.Message{}, err
	}
	from, err := requiredString(fields, "from")
	if err != nil {
		return models.Message{}, err
	}
	to, err := requiredString(fields, "to")
	if err != nil {
		return models.Message{}, err
	}
	ts, err := requiredString(fields, "ts")
	if err != nil {
		return models.Message{}, err
	}
	text, err := optionalString(fields, "text")
	if err != nil {
		return models.Message{}, err
	}

	if messageID == "" {
		return models.Message{}, schemaError("message_id", "must not be empty")
	}
	if !IsE164(from) {
		return models.Message{}, schemaError("from", "must be in E.164 format (+digits)")
	}
	if !IsE164(to) {
		return models.Message{}, schemaError("to", "must be in E.164 format (+digits)")
	}
	if !IsUTCTimestamp(ts) {
		return models.Message{}, schemaError("ts", "must be an ISO-8601 UTC timestamp ending in Z")
	}
	if text != nil && utf8.RuneCountInString(*text) > MaxTextLength {
		return models.Message{}, schemaError("text", fmt.Sprintf("must be at most %d characters", MaxTextLength))
	}

	return models.Message{
		MessageID:  messageID,
		FromNumber: from,
		ToNumber:   to,
		Timestamp:  ts,
		Text:       text,
	}, nil
}

// IsE164 reports whether s is a + followed by digits.
func IsE164(s string) bool {
	return e164Regex.MatchString(s)
}

// IsUTCTimestamp reports whether s parses as an RFC 3339 instant and ends with a literal Z.
// Fractional seconds must use '.', which time.Parse does not enforce.
func IsUTCTimestamp(s string) bool {
	if !strings.HasSuffix(s, "Z") || strings.Contains(s, ",") {
		return false
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return "", schemaError(key, "is required")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", schemaError(key, "must be a string")
	}
	return s, nil
}

func optionalString(fields map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, schemaError(key, "must be a string")
	}
	return &s, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
