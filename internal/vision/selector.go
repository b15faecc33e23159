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

// maxCandidateBytes keeps original plus seven candidates inside one request.
const maxCandidateBytes = 1 << 20

// Selector asks a vision model to pick the best edit.
type Selector struct {
	LLM         llm.Client
	Temperature float64
}

// NewSelector wires a selector around the given model client.
func NewSelector(client llm.Client) *Selector {
	return &Selector{LLM: client, Temperature: 0.2}
}

// Select returns the label and image of the best candidate in set. The label
// named by the model must exist in set.
func (s *Selector) Select(ctx context.Context, theme string, original []byte, set *ResultSet) (string, []byte, error) {
	if s == nil || s.LLM == nil {
		return "", nil, fmt.Errorf("vision: %w: language model not configured", apperr.ErrSelection)
	}
	labels := set.Labels()
	if len(labels) == 0 {
		return "", nil, fmt.Errorf("vision: %w: no candidates", apperr.ErrSelection)
	}

	images := make([]llm.Image, 0, len(labels)+1)
	for _, img := range append([][]byte{original}, candidates(set, labels)...) {
		data, mime, err := imgutil.FitForVision(img, maxCandidateBytes)
		if err != nil {
			return "", nil, fmt.Errorf("vision: %w: prepare candidate: %v", apperr.ErrSelection, err)
		}
		images = append(images, llm.Image{Data: data, MIMEType: mime})
	}

	system, user := prompts.SelectionPrompts(theme, labels)
	assessment, err := s.LLM.ChatCompletion(ctx, []llm.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user, Images: images},
	}, s.Temperature)
	if err != nil {
		return "", nil, fmt.Errorf("vision: %w: assess candidates: %v", apperr.ErrSelection, err)
	}

	raw, err := s.LLM.CallFunction(ctx, []llm.ChatMessage{
		{Role: "user", Content: prompts.SelectionExtraction(labels, assessment)},
	}, selectionFunction(labels))
	if err != nil {
		return "", nil, fmt.Errorf("vision: %w: extract choice: %v", apperr.ErrSelection, err)
	}

	var choice struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal(raw, &choice); err != nil {
		return "", nil, fmt.Errorf("vision: %w: decode choice: %v", apperr.ErrSelection, err)
	}
	label := strings.Trim(strings.TrimSpace(choice.Label), `"'`)
	img, ok := set.Get(label)
	if !ok {
		return "", nil, fmt.Errorf("vision: %w: unknown candidate %q", apperr.ErrSelection, choice.Label)
	}
	return label, img, nil
}

func candidates(set *ResultSet, labels []string) [][]byte {
	out := make([][]byte, 0, len(labels))
	for _, l := range labels {
		img, _ := set.Get(l)
		out = append(out, img)
	}
	return out
}

func selectionFunction(labels []string) llm.Function {
	return llm.Function{
		Name:        "choose_candidate",
		Description: "Record the label of the best edited candidate.",
		Parameters: llm.Object("Chosen candidate", map[string]*llm.Schema{
			"label": {
				Type:        "string",
				Description: "One of: " + strings.Join(labels, ", "),
			},
		}),
	}
}
