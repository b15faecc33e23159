package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   string
		status int
	}{
		{"fetch", fmt.Errorf("%w: no title", ErrFetch), "fetch", http.StatusBadGateway},
		{"generation", fmt.Errorf("%w: 2 pairs", ErrGeneration), "generation", http.StatusBadGateway},
		{"filtered", fmt.Errorf("edit 0: %w", ErrContentFiltered), "content_filtered", http.StatusUnprocessableEntity},
		{"selection", fmt.Errorf("%w: unknown", ErrSelection), "selection", http.StatusBadGateway},
		{"upstream", &UpstreamError{Service: "stability", StatusCode: 500}, "upstream", http.StatusBadGateway},
		{"wrapped upstream", fmt.Errorf("round 1: %w", &UpstreamError{Service: "ads", StatusCode: 403}), "upstream", http.StatusBadGateway},
		{"bad request", BadRequest("trend is required"), "bad_request", http.StatusBadRequest},
		{"unavailable", fmt.Errorf("%w: upscaling inactive", ErrUnavailable), "unavailable", http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), "internal", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, Kind(tt.err))
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestUpstreamErrorMessage(t *testing.T) {
	err := &UpstreamError{Service: "stability", StatusCode: 402, Message: "insufficient credits"}
	assert.Equal(t, "stability: status 402: insufficient credits", err.Error())
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.False(t, errors.Is(err, ErrFetch))
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, fmt.Errorf("%w: listing 1 returned 404", ErrFetch))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fetch", body["kind"])
	assert.Contains(t, body["error"], "listing 1 returned 404")
}
