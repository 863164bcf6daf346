package models

// Message represents a webhook-delivered message as persisted by the store.
type Message struct {
	MessageID  string  `json:"message_id"`
	FromNumber string  `json:"from"`
	ToNumber   string  `json:"to"`
	Timestamp  string  `json:"ts"`             // ISO-8601 UTC, trailing Z
	Text       *string `json:"text,omitempty"` // nil when absent
	CreatedAt  string  `json:"-"`              // set by the store on first insert
}

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// MessageFilter selects a page of messages. Empty string filters are ignored.
type MessageFilter struct {
	Limit  int
	Offset int
	From   string // exact match on from_number
	Since  string // inclusive lower bound on ts
	Q      string // case-sensitive substring of text
}

// Normalized returns a copy with Limit and Offset clamped to the accepted range.
func (f MessageFilter) Normalized() MessageFilter {
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
