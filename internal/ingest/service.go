// Package ingest accepts signed webhook deliveries: it authenticates the raw
// body, validates the payload and stores the message exactly once.
package ingest

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/webhookd/internal/crypto"
	"github.com/eldtechnologies/webhookd/internal/metrics"
	"github.com/eldtechnologies/webhookd/internal/payload"
	"github.com/eldtechnologies/webhookd/internal/store"
)

// Webhook request results, as recorded in logs and metrics.
const (
	ResultCreated          = "created"
	ResultDuplicate        = "duplicate"
	ResultMissingSignature = "missing_signature"
	ResultInvalidSignature = "invalid_signature"
	ResultValidationError  = "validation_error"
	ResultStoreError       = "store_error"
)

// Outcome describes an accepted delivery.
type Outcome struct {
	MessageID string
	Duplicate bool
}

// Service runs the verify, validate, store pipeline.
type Service struct {
	secret string
	store  store.MessageStore
	logger zerolog.Logger
}

func NewService(secret string, st store.MessageStore, logger zerolog.Logger) *Service {
	return &Service{
		secret: secret,
		store:  st,
		logger: logger.With().Str("component", "ingest").Logger(),
	}
}

// SecretConfigured reports whether deliveries can be authenticated at all.
func (s *Service) SecretConfigured() bool {
	return s.secret != ""
}

// Ingest processes one delivery. body must be the exact bytes received and
// signature the value of the signature header ("" when absent).
// Nothing reaches the store unless the signature and payload are both valid.
func (s *Service) Ingest(ctx context.Context, body []byte, signature string) (Outcome, error) {
	if signature == "" {
		s.record(ResultMissingSignature).Msg("webhook rejected")
		return Outcome{}, missingSignature()
	}
	if !crypto.Verify(body, signature, s.secret) {
		s.record(ResultInvalidSignature).Msg("webhook rejected")
		return Outcome{}, invalidSignature()
	}

	msg, err := payload.Validate(body)
	if err != nil {
		var perr *payload.Error
		if errors.As(err, &perr) && perr.Kind == payload.KindSchema {
			s.record(ResultValidationError).
				Str("field", perr.Field).
				Str("reason", perr.Reason).
				Msg("webhook rejected")
			return Outcome{}, validationFailed(err, perr.Field)
		}
		s.record(ResultValidationError).Err(err).Msg("webhook rejected")
		return Outcome{}, malformedInput(err)
	}

	outcome, err := s.store.InsertMessage(ctx, msg)
	if err != nil {
		s.record(ResultStoreError).Str("message_id", msg.MessageID).Err(err).Msg("webhook store failed")
		return Outcome{}, storageUnavailable(err, msg.MessageID)
	}

	dup := outcome == store.DuplicateIgnored
	result := ResultCreated
	if dup {
		result = ResultDuplicate
	}
	s.record(result).
		Str("message_id", msg.MessageID).
		Bool("dup", dup).
		Msg("webhook accepted")

	return Outcome{MessageID: msg.MessageID, Duplicate: dup}, nil
}

func (s *Service) record(result string) *zerolog.Event {
	metrics.WebhookRequests.WithLabelValues(result).Inc()

	var ev *zerolog.Event
	switch result {
	case ResultCreated, ResultDuplicate:
		ev = s.logger.Info()
	case ResultStoreError:
		ev = s.logger.Error()
	default:
		ev = s.logger.Warn()
	}
	return ev.Str("result", result)
}
