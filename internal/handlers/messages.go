package handlers

import (
	"net/http"
	"strconv"

	"github.com/eldtechnologies/webhookd/internal/metrics"
	"github.com/eldtechnologies/webhookd/internal/models"
)

// MessageItem is a message as returned by GET /messages.
type MessageItem struct {
	MessageID string  `json:"message_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Timestamp string  `json:"ts"`
	Text      *string `json:"text"`
}

// MessagesResponse represents one page of messages.
type MessagesResponse struct {
	Items  []MessageItem `json:"items"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListMessages handles GET /messages.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseMessageFilter(r)
	if !ok {
		h.Error(w, http.StatusUnprocessableEntity, "invalid query parameters")
		return
	}

	metrics.MessageQueries.Inc()

	messages, total, err := h.store.ListMessages(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("list messages failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	items := make([]MessageItem, len(messages))
	for i, m := range messages {
		items[i] = MessageItem{
			MessageID: m.MessageID,
			From:      m.FromNumber,
			To:        m.ToNumber,
			Timestamp: m.Timestamp,
			Text:      m.Text,
		}
	}

	h.JSON(w, http.StatusOK, MessagesResponse{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// parseMessageFilter reads limit, offset, from, since and q. Unlike the store,
// which clamps, out-of-range paging values are rejected here.
func parseMessageFilter(r *http.Request) (models.MessageFilter, bool) {
	query := r.URL.Query()

	filter := models.MessageFilter{
		Limit: models.DefaultLimit,
		From:  query.Get("from"),
		Since: query.Get("since"),
		Q:     query.Get("q"),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > models.MaxLimit {
			return filter, false
		}
		filter.Limit = l
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		o, err := strconv.Atoi(offsetStr)
		if err != nil || o < 0 {
			return filter, false
		}
		filter.Offset = o
	}

	return filter, true
}
