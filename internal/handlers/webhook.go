package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/eldtechnologies/webhookd/internal/ingest"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Signature"

// Webhook handles POST /webhook. Accepted and duplicate deliveries both return 200.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.Error(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if _, err := h.ingest.Ingest(r.Context(), body, r.Header.Get(SignatureHeader)); err != nil {
		h.Error(w, ingest.HTTPStatus(err), webhookDetail(err))
		return
	}

	h.JSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// webhookDetail keeps client-facing messages generic; the ingest service logs the cause.
func webhookDetail(err error) string {
	switch ingest.TextCode(err) {
	case ingest.TextCodeMissingSignature:
		return "missing signature"
	case ingest.TextCodeInvalidSignature:
		return "invalid signature"
	case ingest.TextCodeMalformedInput, ingest.TextCodeValidationFailed:
		return "invalid payload"
	default:
		return "internal server error"
	}
}
