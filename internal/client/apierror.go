package client

import (
	"encoding/json"
	"sort"

	"github.com/you/storefront/domain"
)

// Fallback messages shown when the backend gives us nothing usable.
const (
	genericErrorMessage = "Something went wrong. Please try again."
	networkErrorMessage = "Network error. Please check your connection and try again."
	sessionExpiredMsg   = "Your session has expired. Please log in again."
)

// APIError is the normalized form of every failure that crosses the client
// boundary. Raw transport or decoding errors never escape un-normalized.
type APIError struct {
	Message        string
	Status         int
	FieldErrors    map[string][]string
	NonFieldErrors []string
	Detail         string

	wrapped error
}

func (e *APIError) Error() string { return e.Message }

// Unwrap exposes sentinel errors such as domain.ErrUnauthenticated so
// callers can branch with errors.Is.
func (e *APIError) Unwrap() error { return e.wrapped }

// IsNetwork reports whether the request never produced a response.
func (e *APIError) IsNetwork() bool { return e.Status == 0 }

// newNetworkError normalizes a transport-level failure: no response was
// received, so there is no status to report.
func newNetworkError(cause error) *APIError {
	return &APIError{
		Message: networkErrorMessage,
		Status:  0,
		wrapped: cause,
	}
}

// newAuthError marks a terminal authentication failure. errors.Is with
// domain.ErrUnauthenticated holds for the result.
func newAuthError(status int) *APIError {
	return &APIError{
		Message: sessionExpiredMsg,
		Status:  status,
		wrapped: domain.ErrUnauthenticated,
	}
}

// errorPayload is the union of every error body shape the backend emits.
// Field presence decides which branch wins; see normalizeError.
type errorPayload struct {
	Detail         string              `json:"detail"`
	Message        string              `json:"message"`
	Err            string              `json:"error"`
	FieldErrors    map[string][]string `json:"field_errors"`
	NonFieldErrors []string            `json:"non_field_errors"`
}

// payload keys that are not field names in a bare validation map.
var reservedErrorKeys = map[string]bool{
	"detail":           true,
	"message":          true,
	"error":            true,
	"field_errors":     true,
	"non_field_errors": true,
	"status":           true,
	"code":             true,
}

// normalizeError translates a non-2xx response body into an APIError.
// Message precedence: field_errors, non_field_errors, detail, message,
// error, bare per-field map, generic fallback. The precedence is part of
// the wire contract; do not reorder.
func normalizeError(status int, body []byte) *APIError {
	apiErr := &APIError{
		Message: genericErrorMessage,
		Status:  status,
	}
	if len(body) == 0 {
		return apiErr
	}

	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	apiErr.Detail = payload.Detail
	apiErr.NonFieldErrors = payload.NonFieldErrors
	if len(payload.FieldErrors) > 0 {
		apiErr.FieldErrors = payload.FieldErrors
	}

	switch {
	case len(payload.FieldErrors) > 0:
		apiErr.Message = firstFieldError(payload.FieldErrors)
	case len(payload.NonFieldErrors) > 0:
		apiErr.Message = payload.NonFieldErrors[0]
	case payload.Detail != "":
		apiErr.Message = payload.Detail
	case payload.Message != "":
		apiErr.Message = payload.Message
	case payload.Err != "":
		apiErr.Message = payload.Err
	default:
		if fields := bareFieldMap(body); len(fields) > 0 {
			apiErr.FieldErrors = fields
			apiErr.Message = firstFieldError(fields)
		}
	}

	return apiErr
}

// firstFieldError picks a deterministic first message out of a field map.
func firstFieldError(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(fields[k]) > 0 && fields[k][0] != "" {
			return fields[k][0]
		}
	}
	return genericErrorMessage
}

// bareFieldMap handles the validation shape where the body itself is a map
// of field names to message lists, with no envelope around it.
func bareFieldMap(body []byte) map[string][]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	fields := make(map[string][]string)
	for key, value := range raw {
		if reservedErrorKeys[key] {
			continue
		}
		var messages []string
		if err := json.Unmarshal(value, &messages); err != nil {
			continue
		}
		if len(messages) > 0 {
			fields[key] = messages
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
