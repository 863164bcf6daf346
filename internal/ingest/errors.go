package ingest

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried by ingest errors.
const (
	TextCodeMissingSignature   = "MISSING_SIGNATURE"
	TextCodeInvalidSignature   = "INVALID_SIGNATURE"
	TextCodeMalformedInput     = "MALFORMED_INPUT"
	TextCodeValidationFailed   = "VALIDATION_FAILED"
	TextCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

func ingestError(message string, category goerrors.Category, code int, textCode string, metadata map[string]any) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func ingestWrapError(source error, category goerrors.Category, message string, code int, textCode string, metadata map[string]any) error {
	if source == nil {
		return ingestError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func missingSignature() error {
	return ingestError("missing signature", goerrors.CategoryAuth, http.StatusUnauthorized, TextCodeMissingSignature, nil)
}

func invalidSignature() error {
	return ingestError("invalid signature", goerrors.CategoryAuth, http.StatusUnauthorized, TextCodeInvalidSignature, nil)
}

func malformedInput(source error) error {
	return ingestWrapError(source, goerrors.CategoryBadInput, "invalid payload",
		http.StatusUnprocessableEntity, TextCodeMalformedInput, nil)
}

func validationFailed(source error, field string) error {
	return ingestWrapError(source, goerrors.CategoryValidation, "invalid payload",
		http.StatusUnprocessableEntity, TextCodeValidationFailed, map[string]any{"field": field})
}

func storageUnavailable(source error, messageID string) error {
	return ingestWrapError(source, goerrors.CategoryInternal, "storage unavailable",
		http.StatusInternalServerError, TextCodeStorageUnavailable, map[string]any{"message_id": messageID})
}

// HTTPStatus maps an ingest error to the response status. Errors without an
// envelope are treated as internal.
func HTTPStatus(err error) int {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code != 0 {
		return rich.Code
	}
	return http.StatusInternalServerError
}

// TextCode returns the text code of an ingest error, or "" when it has none.
func TextCode(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode
	}
	return ""
}
