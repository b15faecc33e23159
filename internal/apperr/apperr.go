// Package apperr defines the failure kinds surfaced to HTTP callers and the
// single JSON error body every handler writes.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrFetch means the listing page was unreachable or its HTML shape changed.
	ErrFetch = errors.New("listing fetch failed")
	// ErrGeneration means a language-model call failed or returned malformed structured output.
	ErrGeneration = errors.New("generation failed")
	// ErrContentFiltered means the image provider's safety filter rejected the edit.
	ErrContentFiltered = errors.New("content filtered")
	// ErrSelection means best-image selection failed or named an unknown candidate.
	ErrSelection = errors.New("selection failed")
	// ErrUpstream means an external provider answered with a non-2xx status.
	ErrUpstream = errors.New("upstream http error")
	// ErrBadRequest marks invalid caller input.
	ErrBadRequest = errors.New("bad request")
	// ErrUnavailable means the feature has no configured provider.
	ErrUnavailable = errors.New("unavailable")
)

// UpstreamError carries the status returned by an external provider.
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrUpstream) match.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// BadRequest wraps a validation message as ErrBadRequest.
func BadRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// Kind names the failure class for the JSON error body.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrContentFiltered):
		return "content_filtered"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrSelection):
		return "selection"
	case errors.Is(err, ErrGeneration):
		return "generation"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	default:
		return "internal"
	}
}

// Status maps an error to the HTTP status returned to the caller.
func Status(err error) int {
	switch Kind(err) {
	case "bad_request":
		return http.StatusBadRequest
	case "content_filtered":
		return http.StatusUnprocessableEntity
	case "unavailable":
		return http.StatusServiceUnavailable
	case "fetch", "selection", "generation", "upstream":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// WriteJSON writes err as {"error": ..., "kind": ...} with the mapped status.
func WriteJSON(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(Status(err))
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error(), Kind: Kind(err)})
}
