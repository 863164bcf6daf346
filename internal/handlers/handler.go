package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/webhookd/internal/ingest"
	"github.com/eldtechnologies/webhookd/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store  store.MessageStore
	redis  *store.RedisStore
	ingest *ingest.Service
	logger zerolog.Logger
}

// NewHandler creates a new Handler. redis may be nil when Redis is not configured.
func NewHandler(st store.MessageStore, redis *store.RedisStore, svc *ingest.Service, logger zerolog.Logger) *Handler {
	return &Handler{store: st, redis: redis, ingest: svc, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Debug().Err(err).Msg("write response")
	}
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"detail": message})
}

// StatusResponse is the body of simple acknowledgements.
type StatusResponse struct {
	Status string `json:"status"`
}
