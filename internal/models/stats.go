package models

// TopSendersLimit caps the number of senders reported in Stats.
const TopSendersLimit = 10

// SenderCount is the number of messages sent from one number.
type SenderCount struct {
	From  string `json:"from"`
	Count int64  `json:"count"`
}

// Stats aggregates the stored message set.
type Stats struct {
	TotalMessages     int64
	SendersCount      int64
	MessagesPerSender []SenderCount
	FirstMessageTS    *string
	LastMessageTS     *string
}
