package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"autocamper/internal/apperr"
	"autocamper/internal/listings"
	"autocamper/internal/llm"
	"autocamper/internal/prompts"
)

// MaxTrends caps the themes suggested for one venue.
const MaxTrends = 5

// TrendAdvisor suggests party themes that suit a venue.
type TrendAdvisor struct {
	client llm.Client
}

// NewTrendAdvisor constructs an advisor backed by the given model client.
func NewTrendAdvisor(client llm.Client) *TrendAdvisor {
	return &TrendAdvisor{client: client}
}

// Suggest returns up to MaxTrends distinct themes.
func (a *TrendAdvisor) Suggest(ctx context.Context, listing listings.Listing) ([]string, error) {
	if a == nil || a.client == nil {
		return nil, fmt.Errorf("generation: trend advisor unavailable")
	}

	maxItems := int64(MaxTrends)
	fn := llm.Function{
		Name:        "record_themes",
		Description: "Record suggested event themes.",
		Parameters: llm.Object("Event themes", map[string]*llm.Schema{
			"themes": {
				Type:        "array",
				Description: "Short theme names.",
				Items:       &llm.Schema{Type: "string"},
				MaxItems:    &maxItems,
			},
		}),
	}
	venue := prompts.Venue{Title: listing.Title, Tags: listing.Tags}
	raw, err := a.client.CallFunction(ctx, []llm.ChatMessage{
		{Role: "user", Content: prompts.Trends(venue, MaxTrends)},
	}, fn)
	if err != nil {
		return nil, fmt.Errorf("generation: trends: %w: %v", apperr.ErrGeneration, err)
	}

	var payload struct {
		Themes []string `json:"themes"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("generation: trends: %w: decode: %v", apperr.ErrGeneration, err)
	}
	return dedupe(payload.Themes, MaxTrends), nil
}

func dedupe(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, limit)
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
