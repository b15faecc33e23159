package llm

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
)

// ErrNoFunctionCall is returned when the model answers without calling the
// function it was forced to call.
var ErrNoFunctionCall = errors.New("llm: model did not call the requested function")

// Image is an inline picture attached to a chat turn.
type Image struct {
	Data     []byte
	MIMEType string
}

// ChatMessage represents a generic chat turn in the prompt history.
type ChatMessage struct {
	Role    string
	Content string
	Images  []Image
}

// Function declares a structured output the model must produce by "calling" it.
type Function struct {
	Name        string
	Description string
	Parameters  *Schema
}

// Schema is the JSON-schema subset shared by the providers.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	MinItems    *int64             `json:"minItems,omitempty"`
	MaxItems    *int64             `json:"maxItems,omitempty"`
}

// Client defines the behaviour required by the vision and generation packages.
type Client interface {
	ChatCompletion(ctx context.Context, messages []ChatMessage, temperature float64) (string, error)
	CallFunction(ctx context.Context, messages []ChatMessage, fn Function) (json.RawMessage, error)
}

// StringList builds an array-of-strings schema with exactly n items.
func StringList(description string, n int64) *Schema {
	return &Schema{
		Type:        "array",
		Description: description,
		Items:       &Schema{Type: "string"},
		MinItems:    &n,
		MaxItems:    &n,
	}
}

// Object builds an object schema where every property is required.
func Object(description string, props map[string]*Schema) *Schema {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	slices.Sort(required)
	return &Schema{
		Type:        "object",
		Description: description,
		Properties:  props,
		Required:    required,
	}
}
