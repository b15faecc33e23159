package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"autocamper/internal/apperr"
	"autocamper/internal/imgutil"
	"autocamper/internal/llm"
	"autocamper/internal/prompts"
)

// DirectiveCount is the number of edits proposed per request.
const DirectiveCount = 3

// MaxVisionImageBytes caps each inline image sent to the language model.
const MaxVisionImageBytes = 4 << 20

var directiveFunction = llm.Function{
	Name:        "record_edits",
	Description: "Record the proposed photo edits as parallel search and replace lists.",
	Parameters: llm.Object("Proposed edits", map[string]*llm.Schema{
		"search":  llm.StringList("Objects or surfaces to find in the photo, in order.", DirectiveCount),
		"replace": llm.StringList("What each searched object becomes, in the same order.", DirectiveCount),
	}),
}

// PromptGenerator asks a vision model for three themed edit directives.
type PromptGenerator struct {
	LLM         llm.Client
	Temperature float64
}

// NewPromptGenerator wires a generator around the given model client.
func NewPromptGenerator(client llm.Client) *PromptGenerator {
	return &PromptGenerator{LLM: client, Temperature: 0.7}
}

// Generate describes edits in free text first, then extracts them through a
// forced function call. Anything other than exactly three pairs fails.
func (g *PromptGenerator) Generate(ctx context.Context, theme string, image []byte) ([]Directive, error) {
	if g == nil || g.LLM == nil {
		return nil, fmt.Errorf("vision: %w: language model not configured", apperr.ErrGeneration)
	}

	data, mime, err := imgutil.FitForVision(image, MaxVisionImageBytes)
	if err != nil {
		return nil, fmt.Errorf("vision: prepare image: %w", err)
	}

	system, user := prompts.EditPrompts(theme)
	description, err := g.LLM.ChatCompletion(ctx, []llm.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user, Images: []llm.Image{{Data: data, MIMEType: mime}}},
	}, g.Temperature)
	if err != nil {
		return nil, fmt.Errorf("vision: describe edits: %w: %v", apperr.ErrGeneration, err)
	}

	raw, err := g.LLM.CallFunction(ctx, []llm.ChatMessage{
		{Role: "user", Content: prompts.EditExtraction(description)},
	}, directiveFunction)
	if err != nil {
		return nil, fmt.Errorf("vision: extract edits: %w: %v", apperr.ErrGeneration, err)
	}

	return parseDirectives(raw)
}

func parseDirectives(raw json.RawMessage) ([]Directive, error) {
	var payload struct {
		Search  []string `json:"search"`
		Replace []string `json:"replace"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("vision: %w: decode edits: %v", apperr.ErrGeneration, err)
	}
	if len(payload.Search) != DirectiveCount || len(payload.Replace) != DirectiveCount {
		return nil, fmt.Errorf("vision: %w: want %d search/replace pairs, got %d/%d",
			apperr.ErrGeneration, DirectiveCount, len(payload.Search), len(payload.Replace))
	}

	directives := make([]Directive, DirectiveCount)
	for i := range directives {
		search := strings.TrimSpace(payload.Search[i])
		replace := strings.TrimSpace(payload.Replace[i])
		if search == "" || replace == "" {
			return nil, fmt.Errorf("vision: %w: edit %d is empty", apperr.ErrGeneration, i)
		}
		directives[i] = Directive{Search: search, Replace: replace}
	}
	return directives, nil
}
