package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBuildContentsSplitsSystemAndImages(t *testing.T) {
	contents, system := buildContents([]ChatMessage{
		{Role: "system", Content: "rule one"},
		{Role: "system", Content: "rule two"},
		{Role: "user", Content: "look", Images: []Image{{Data: []byte("png"), MIMEType: "image/png"}}},
		{Role: "assistant", Content: "looked"},
		{Role: "user"},
	})

	require.NotNil(t, system)
	require.Len(t, system.Parts, 1)
	assert.Equal(t, "rule one\n\nrule two", system.Parts[0].Text)

	require.Len(t, contents, 2, "empty turns are skipped")
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	require.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "look", contents[0].Parts[0].Text)
	require.NotNil(t, contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/png", contents[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("png"), contents[0].Parts[1].InlineData.Data)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
}

func TestToGenaiSchema(t *testing.T) {
	schema := Object("edits", map[string]*Schema{
		"search":  StringList("things to find", 3),
		"replace": StringList("replacements", 3),
	})

	out := toGenaiSchema(schema)
	require.NotNil(t, out)
	assert.Equal(t, genai.TypeObject, out.Type)
	assert.Equal(t, []string{"replace", "search"}, out.Required)

	search := out.Properties["search"]
	require.NotNil(t, search)
	assert.Equal(t, genai.TypeArray, search.Type)
	assert.Equal(t, genai.TypeString, search.Items.Type)
	require.NotNil(t, search.MinItems)
	assert.EqualValues(t, 3, *search.MinItems)
	assert.EqualValues(t, 3, *search.MaxItems)

	assert.Nil(t, toGenaiSchema(nil))
}

func TestModelOverride(t *testing.T) {
	c := &GeminiClient{model: normalizeModel("models/gemini-2.5-pro")}
	assert.Equal(t, "gemini-2.5-pro", c.modelFor(context.Background()))
	assert.Equal(t, "gemini-2.0-flash", c.modelFor(WithModel(context.Background(), " models/gemini-2.0-flash ")))
	assert.Equal(t, "gemini-2.5-pro", c.modelFor(WithModel(context.Background(), "  ")))
	assert.Equal(t, defaultGeminiModel, normalizeModel(""))
}
