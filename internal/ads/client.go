// Package ads creates search campaigns through the Google Ads REST API.
package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"autocamper/internal/apperr"
)

const (
	defaultBaseURL    = "https://googleads.googleapis.com"
	defaultAPIVersion = "v17"
	adwordsScope      = "https://www.googleapis.com/auth/adwords"
)

// Config carries the API credentials and account ids.
type Config struct {
	DeveloperToken  string
	CustomerID      string
	LoginCustomerID string
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	APIVersion      string
	BaseURL         string
}

// Operation is a single mutate operation. Only creates are issued.
type Operation struct {
	Create any `json:"create"`
}

// Client is a thin REST client for the Google Ads API.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

// TokenSource exchanges the configured refresh token for access tokens.
func TokenSource(ctx context.Context, cfg Config) oauth2.TokenSource {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{adwordsScope},
	}
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
}

// NewClient builds a client that authorises every request with ts. A nil
// base client gets a 30 second timeout.
func NewClient(cfg Config, ts oauth2.TokenSource, base *http.Client) *Client {
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		cfg:     cfg,
		baseURL: baseURL + "/" + cfg.APIVersion,
		httpClient: &http.Client{
			Timeout:   base.Timeout,
			Transport: &oauth2.Transport{Source: ts, Base: transport},
		},
	}
}

type mutateResponse struct {
	Results []struct {
		ResourceName string `json:"resourceName"`
	} `json:"results"`
}

// Mutate creates resources of the given kind (campaignBudgets, campaigns,
// adGroups, ...) and returns their resource names in operation order.
func (c *Client) Mutate(ctx context.Context, resource string, ops []Operation) ([]string, error) {
	path := fmt.Sprintf("/customers/%s/%s:mutate", c.cfg.CustomerID, resource)
	var resp mutateResponse
	if err := c.post(ctx, path, map[string]any{"operations": ops}, &resp); err != nil {
		return nil, fmt.Errorf("ads: mutate %s: %w", resource, err)
	}

	names := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		names = append(names, r.ResourceName)
	}
	if len(names) != len(ops) {
		return names, fmt.Errorf("ads: mutate %s: %d results for %d operations", resource, len(names), len(ops))
	}
	return names, nil
}

type suggestResponse struct {
	Suggestions []struct {
		GeoTargetConstant struct {
			ResourceName string `json:"resourceName"`
			Name         string `json:"name"`
		} `json:"geoTargetConstant"`
		SearchTerm string `json:"searchTerm"`
	} `json:"geoTargetConstantSuggestions"`
}

// SuggestGeoTargets looks up geo target constants for location names.
func (c *Client) SuggestGeoTargets(ctx context.Context, locale, countryCode string, names []string) ([]string, error) {
	body := map[string]any{
		"locale":        locale,
		"countryCode":   countryCode,
		"locationNames": map[string]any{"names": names},
	}
	var resp suggestResponse
	if err := c.post(ctx, "/geoTargetConstants:suggest", body, &resp); err != nil {
		return nil, fmt.Errorf("ads: suggest geo targets: %w", err)
	}

	seen := make(map[string]struct{}, len(resp.Suggestions))
	out := make([]string, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		name := s.GeoTargetConstant.ResourceName
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("developer-token", c.cfg.DeveloperToken)
	if c.cfg.LoginCustomerID != "" {
		req.Header.Set("login-customer-id", c.cfg.LoginCustomerID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w: %w", apperr.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return &apperr.UpstreamError{Service: "google-ads", StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
