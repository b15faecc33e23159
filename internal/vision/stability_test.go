package vision

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocamper/internal/apperr"
)

func TestStabilityEditSendsMultipartForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2beta/stable-image/edit/search-and-replace", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "image/*", r.Header.Get("Accept"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "pizza lamp", r.FormValue("prompt"))
		assert.Equal(t, "lamp", r.FormValue("search_prompt"))
		assert.Equal(t, "png", r.FormValue("output_format"))

		file, _, err := r.FormFile("image")
		if assert.NoError(t, err) {
			data, _ := io.ReadAll(file)
			assert.Equal(t, "source", string(data))
		}

		w.Header().Set("finish-reason", "SUCCESS")
		w.Header().Set("seed", "1234")
		_, _ = w.Write([]byte("edited"))
	}))
	defer srv.Close()

	client := NewStabilityClient("key", srv.URL+"/", srv.Client())
	res, err := client.Edit(context.Background(), []byte("source"), "pizza lamp", "lamp")
	require.NoError(t, err)
	assert.Equal(t, "edited", string(res.Image))
	assert.Equal(t, "SUCCESS", res.FinishReason)
	assert.Equal(t, "1234", res.Seed)
}

func TestStabilityContentFiltered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("finish-reason", "CONTENT_FILTERED")
		_, _ = w.Write([]byte("blurred"))
	}))
	defer srv.Close()

	res, err := NewStabilityClient("key", srv.URL, srv.Client()).Edit(context.Background(), []byte("x"), "a", "b")
	assert.ErrorIs(t, err, apperr.ErrContentFiltered)
	assert.Nil(t, res.Image)
}

func TestStabilityUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"name":"bad_request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewStabilityClient("key", srv.URL, srv.Client()).Edit(context.Background(), []byte("x"), "a", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)

	var upstream *apperr.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	assert.Equal(t, "stability", upstream.Service)
}

func TestStabilityTransportFailureIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewStabilityClient("key", url, nil).Edit(context.Background(), []byte("x"), "a", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Equal(t, "upstream", apperr.Kind(err))
	assert.Equal(t, http.StatusBadGateway, apperr.Status(err))
}

func TestStabilityUpscale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2beta/stable-image/upscale/fast", r.URL.Path)
		_, _ = w.Write([]byte("bigger"))
	}))
	defer srv.Close()

	out, err := NewStabilityClient("key", srv.URL, srv.Client()).Upscale(context.Background(), []byte("small"))
	require.NoError(t, err)
	assert.Equal(t, "bigger", string(out))
}

func TestStabilityRequiresKey(t *testing.T) {
	_, err := NewStabilityClient("", "", nil).Upscale(context.Background(), []byte("x"))
	assert.Error(t, err)
}
