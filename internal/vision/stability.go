package vision

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"autocamper/internal/apperr"
)

const (
	stabilityEditPath    = "/v2beta/stable-image/edit/search-and-replace"
	stabilityUpscalePath = "/v2beta/stable-image/upscale/fast"

	finishContentFiltered = "CONTENT_FILTERED"
)

// StabilityClient calls the Stability AI image endpoints.
type StabilityClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewStabilityClient builds a client. A nil httpClient gets a two minute timeout.
func NewStabilityClient(apiKey, baseURL string, httpClient *http.Client) *StabilityClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.stability.ai"
	}
	return &StabilityClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Edit runs search-and-replace inpainting on image.
func (c *StabilityClient) Edit(ctx context.Context, image []byte, replace, search string) (EditResult, error) {
	body, resp, err := c.post(ctx, stabilityEditPath, image, map[string]string{
		"prompt":        replace,
		"search_prompt": search,
		"output_format": "png",
	})
	if err != nil {
		return EditResult{}, err
	}

	result := EditResult{
		Image:        body,
		FinishReason: resp.Header.Get("finish-reason"),
		Seed:         resp.Header.Get("seed"),
	}
	if strings.EqualFold(result.FinishReason, finishContentFiltered) {
		return EditResult{}, fmt.Errorf("stability: edit %q: %w", search, apperr.ErrContentFiltered)
	}
	return result, nil
}

// Upscale runs the fast upscaler on image.
func (c *StabilityClient) Upscale(ctx context.Context, image []byte) ([]byte, error) {
	body, resp, err := c.post(ctx, stabilityUpscalePath, image, map[string]string{
		"output_format": "png",
	})
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(resp.Header.Get("finish-reason"), finishContentFiltered) {
		return nil, fmt.Errorf("stability: upscale: %w", apperr.ErrContentFiltered)
	}
	return body, nil
}

func (c *StabilityClient) post(ctx context.Context, path string, image []byte, fields map[string]string) ([]byte, *http.Response, error) {
	if c.apiKey == "" {
		return nil, nil, fmt.Errorf("stability: api key not configured")
	}

	buf := new(bytes.Buffer)
	form := multipart.NewWriter(buf)
	part, err := form.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, nil, fmt.Errorf("stability: build form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, nil, fmt.Errorf("stability: build form: %w", err)
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return nil, nil, fmt.Errorf("stability: build form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, nil, fmt.Errorf("stability: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, buf)
	if err != nil {
		return nil, nil, fmt.Errorf("stability: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "image/*")
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("stability: request: %w: %w", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("stability: read response: %w: %w", apperr.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &apperr.UpstreamError{
			Service:    "stability",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return body, resp, nil
}
