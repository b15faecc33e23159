package vision

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"autocamper/internal/apperr"
	"autocamper/internal/imgutil"
)

const defaultImageModel = "gemini-2.5-flash-image"

// GeminiEditor edits images with a Gemini image-output model. It is the
// fallback editor when neither Stability nor Vertex is configured.
type GeminiEditor struct {
	client *genai.Client
	model  string
}

// NewGeminiEditor constructs an editor able to request inline images.
func NewGeminiEditor(ctx context.Context, apiKey, model string, httpClient *http.Client) (*GeminiEditor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("vision: gemini editor missing API key")
	}
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if model == "" {
		model = defaultImageModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("vision: create genai client: %w", err)
	}
	return &GeminiEditor{client: client, model: model}, nil
}

// Edit asks the model to swap search for replace and keep the rest of the photo.
func (g *GeminiEditor) Edit(ctx context.Context, image []byte, replace, search string) (EditResult, error) {
	prompt := fmt.Sprintf("Edit this photo: replace %s with %s. Keep everything else in the room unchanged.",
		strings.TrimSpace(search), strings.TrimSpace(replace))
	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(image, imgutil.DetectMIME(image, "")),
		genai.NewPartFromText(prompt),
	}, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return EditResult{}, fmt.Errorf("vision: gemini edit: %w: %v", apperr.ErrUpstream, err)
	}
	return editResultFromResponse(resp)
}

func editResultFromResponse(resp *genai.GenerateContentResponse) (EditResult, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return EditResult{}, fmt.Errorf("vision: gemini edit blocked (%s): %w", resp.PromptFeedback.BlockReason, apperr.ErrContentFiltered)
	}
	if len(resp.Candidates) == 0 {
		return EditResult{}, fmt.Errorf("vision: gemini edit returned no candidates")
	}

	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist, genai.FinishReason("IMAGE_SAFETY"):
		return EditResult{}, fmt.Errorf("vision: gemini edit (%s): %w", cand.FinishReason, apperr.ErrContentFiltered)
	}
	if cand.Content == nil {
		return EditResult{}, fmt.Errorf("vision: gemini edit returned no content")
	}

	for _, part := range cand.Content.Parts {
		if part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		return EditResult{Image: part.InlineData.Data, FinishReason: string(cand.FinishReason)}, nil
	}
	return EditResult{}, fmt.Errorf("vision: gemini edit returned no image data")
}
