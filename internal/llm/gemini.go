package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient talks to Gemini through the genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient constructs a Gemini client for the desired model.
func NewGeminiClient(ctx context.Context, apiKey, model string, httpClient *http.Client) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiClient{client: client, model: normalizeModel(model)}, nil
}

// ChatCompletion sends the conversation and returns the candidate text.
func (c *GeminiClient) ChatCompletion(ctx context.Context, messages []ChatMessage, temperature float64) (string, error) {
	contents, system := buildContents(messages)
	if len(contents) == 0 {
		return "", fmt.Errorf("gemini: missing user or assistant messages")
	}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(temperature)),
		SystemInstruction: system,
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.modelFor(ctx), contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: candidate missing text")
	}
	return text, nil
}

// CallFunction forces the model to call fn and returns the call arguments as JSON.
func (c *GeminiClient) CallFunction(ctx context.Context, messages []ChatMessage, fn Function) (json.RawMessage, error) {
	contents, system := buildContents(messages)
	if len(contents) == 0 {
		return nil, fmt.Errorf("gemini: missing user or assistant messages")
	}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(0)),
		SystemInstruction: system,
		Tools: []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  toGenaiSchema(fn.Parameters),
			}},
		}},
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{fn.Name},
			},
		},
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.modelFor(ctx), contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}

	for _, call := range resp.FunctionCalls() {
		if call == nil || call.Name != fn.Name {
			continue
		}
		args, err := json.Marshal(call.Args)
		if err != nil {
			return nil, fmt.Errorf("gemini: encode %s args: %w", fn.Name, err)
		}
		return args, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoFunctionCall, fn.Name)
}

func (c *GeminiClient) modelFor(ctx context.Context) string {
	if override := modelFromContext(ctx); override != "" {
		return override
	}
	return c.model
}

// buildContents splits system prompts out of the history and maps the
// remaining turns, with their images, to genai contents.
func buildContents(messages []ChatMessage) ([]*genai.Content, *genai.Content) {
	var (
		systemPrompts []string
		contents      []*genai.Content
	)

	for _, msg := range messages {
		var role genai.Role
		switch strings.ToLower(strings.TrimSpace(msg.Role)) {
		case "system":
			systemPrompts = append(systemPrompts, msg.Content)
			continue
		case "assistant", "model":
			role = genai.RoleModel
		default:
			role = genai.RoleUser
		}

		parts := make([]*genai.Part, 0, len(msg.Images)+1)
		if strings.TrimSpace(msg.Content) != "" {
			parts = append(parts, genai.NewPartFromText(msg.Content))
		}
		for _, img := range msg.Images {
			parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}

	if len(systemPrompts) == 0 {
		return contents, nil
	}
	return contents, genai.NewContentFromText(strings.Join(systemPrompts, "\n\n"), genai.RoleUser)
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(s.Type)),
		Description: s.Description,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
		MinItems:    s.MinItems,
		MaxItems:    s.MaxItems,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}

func normalizeModel(model string) string {
	clean := strings.TrimSpace(model)
	clean = strings.TrimPrefix(clean, "models/")
	if clean == "" {
		return defaultGeminiModel
	}
	return clean
}
