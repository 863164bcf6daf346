package handlers

import (
	"net/http"

	"github.com/eldtechnologies/webhookd/internal/models"
)

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	TotalMessages     int64                `json:"total_messages"`
	SendersCount      int64                `json:"senders_count"`
	MessagesPerSender []models.SenderCount `json:"messages_per_sender"`
	FirstMessageTS    *string              `json:"first_message_ts"`
	LastMessageTS     *string              `json:"last_message_ts"`
}

// Stats returns aggregate message statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("stats failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	senders := stats.MessagesPerSender
	if senders == nil {
		senders = []models.SenderCount{}
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		TotalMessages:     stats.TotalMessages,
		SendersCount:      stats.SendersCount,
		MessagesPerSender: senders,
		FirstMessageTS:    stats.FirstMessageTS,
		LastMessageTS:     stats.LastMessageTS,
	})
}
