package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"autocamper/internal/apperr"
)

// OpenAIClient wraps the chat-completions endpoint, including vision input and
// tool calls.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIClient constructs a client using the provided API key and default model.
func NewOpenAIClient(apiKey, model, baseURL string, httpClient *http.Client) *OpenAIClient {
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &OpenAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  httpClient,
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

type openAIToolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type openAIChatRequest struct {
	Model       string            `json:"model"`
	Messages    []openAIMessage   `json:"messages"`
	Temperature float64           `json:"temperature"`
	Tools       []openAITool      `json:"tools,omitempty"`
	ToolChoice  *openAIToolChoice `json:"tool_choice,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatCompletion sends chat messages to OpenAI and returns the first response content.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, messages []ChatMessage, temperature float64) (string, error) {
	out, err := c.do(ctx, openAIChatRequest{
		Model:       c.modelFor(ctx),
		Messages:    toOpenAIMessages(messages),
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai: empty response")
	}
	return text, nil
}

// CallFunction forces a tool call to fn and returns its JSON arguments.
func (c *OpenAIClient) CallFunction(ctx context.Context, messages []ChatMessage, fn Function) (json.RawMessage, error) {
	choice := &openAIToolChoice{Type: "function"}
	choice.Function.Name = fn.Name

	out, err := c.do(ctx, openAIChatRequest{
		Model:    c.modelFor(ctx),
		Messages: toOpenAIMessages(messages),
		Tools: []openAITool{{
			Type: "function",
			Function: openAIFunction{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  fn.Parameters,
			},
		}},
		ToolChoice: choice,
	})
	if err != nil {
		return nil, err
	}

	for _, ch := range out.Choices {
		for _, call := range ch.Message.ToolCalls {
			if call.Function.Name != fn.Name {
				continue
			}
			raw := json.RawMessage(call.Function.Arguments)
			if !json.Valid(raw) {
				return nil, fmt.Errorf("openai: %s arguments are not valid JSON", fn.Name)
			}
			return raw, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoFunctionCall, fn.Name)
}

func (c *OpenAIClient) do(ctx context.Context, payload openAIChatRequest) (openAIChatResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return openAIChatResponse{}, fmt.Errorf("marshal openai payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return openAIChatResponse{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return openAIChatResponse{}, fmt.Errorf("openai: perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var failure struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return openAIChatResponse{}, &apperr.UpstreamError{Service: "openai", StatusCode: resp.StatusCode, Message: failure.Error.Message}
	}

	var completion openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return openAIChatResponse{}, fmt.Errorf("openai: decode response: %w", err)
	}
	return completion, nil
}

func (c *OpenAIClient) modelFor(ctx context.Context) string {
	if override := modelFromContext(ctx); override != "" {
		return override
	}
	return c.model
}

func toOpenAIMessages(messages []ChatMessage) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		if role == "" {
			role = "user"
		}
		if len(msg.Images) == 0 {
			out = append(out, openAIMessage{Role: role, Content: msg.Content})
			continue
		}

		parts := make([]openAIContentPart, 0, len(msg.Images)+1)
		if msg.Content != "" {
			parts = append(parts, openAIContentPart{Type: "text", Text: msg.Content})
		}
		for _, img := range msg.Images {
			parts = append(parts, openAIContentPart{
				Type:     "image_url",
				ImageURL: &openAIImageURL{URL: dataURL(img)},
			})
		}
		out = append(out, openAIMessage{Role: role, Content: parts})
	}
	return out
}

func dataURL(img Image) string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
