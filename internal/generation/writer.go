package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"autocamper/internal/apperr"
	"autocamper/internal/llm"
	"autocamper/internal/prompts"
)

const defaultLanguage = "Japanese"

// NewLLM wires a copywriter that asks the model for each asset list.
func NewLLM(client llm.Client) Copywriter {
	return &llmCopywriter{client: client}
}

type llmCopywriter struct {
	client llm.Client
}

// Write runs the headline, description and keyword calls concurrently and
// rejects output that breaks the counts or length limits.
func (c *llmCopywriter) Write(ctx context.Context, brief Brief) (AdCopy, error) {
	venue := prompts.Venue{Title: brief.Title, Tags: brief.Tags, Theme: brief.Theme}
	lang := brief.Language
	if strings.TrimSpace(lang) == "" {
		lang = defaultLanguage
	}

	var out AdCopy
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Headlines, err = c.list(gctx, "record_headlines", prompts.Headlines(venue, lang, HeadlineCount, MaxHeadlineWidth), HeadlineCount)
		return err
	})
	g.Go(func() (err error) {
		out.Descriptions, err = c.list(gctx, "record_descriptions", prompts.Descriptions(venue, lang, DescriptionCount, MaxDescriptionWidth), DescriptionCount)
		return err
	})
	g.Go(func() (err error) {
		out.Keywords, err = c.list(gctx, "record_keywords", prompts.Keywords(venue, lang, KeywordCount), KeywordCount)
		return err
	})
	if err := g.Wait(); err != nil {
		return AdCopy{}, err
	}
	return out.Validate()
}

func (c *llmCopywriter) list(ctx context.Context, name, prompt string, n int) ([]string, error) {
	fn := llm.Function{
		Name:        name,
		Description: "Record the requested ad texts.",
		Parameters: llm.Object("Ad texts", map[string]*llm.Schema{
			"items": llm.StringList("The texts, one per entry.", int64(n)),
		}),
	}
	raw, err := c.client.CallFunction(ctx, []llm.ChatMessage{
		{Role: "system", Content: prompts.CopySystemPrompt()},
		{Role: "user", Content: prompt},
	}, fn)
	if err != nil {
		return nil, fmt.Errorf("generation: %s: %w: %v", name, apperr.ErrGeneration, err)
	}

	var payload struct {
		Items []string `json:"items"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("generation: %s: %w: decode: %v", name, apperr.ErrGeneration, err)
	}
	return payload.Items, nil
}
