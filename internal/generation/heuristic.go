package generation

import (
	"context"
	"strings"
)

// NewHeuristic returns a rules-based copywriter used when no model is configured.
func NewHeuristic() Copywriter {
	return heuristicCopywriter{}
}

type heuristicCopywriter struct{}

func (heuristicCopywriter) Write(_ context.Context, brief Brief) (AdCopy, error) {
	title := strings.TrimSpace(brief.Title)
	if title == "" {
		title = "レンタルスペース"
	}
	theme := strings.TrimSpace(brief.Theme)
	if theme == "" {
		theme = "パーティー"
	}

	headlines := []string{
		Truncate(title, MaxHeadlineWidth),
		Truncate(theme+"におすすめの会場", MaxHeadlineWidth),
		Truncate(firstOr(brief.Tags, "貸切")+"で使えるスペース", MaxHeadlineWidth),
	}
	descriptions := []string{
		Truncate(title+"は"+theme+"にぴったりの貸切スペースです。今すぐ空き状況をチェック。", MaxDescriptionWidth),
		Truncate(summarizeTags(brief.Tags)+"。1時間単位で予約でき、当日の利用も相談可能です。", MaxDescriptionWidth),
	}

	return AdCopy{
		Headlines:    headlines,
		Descriptions: descriptions,
		Keywords:     buildKeywords(title, theme, brief.Tags),
	}.Validate()
}

func buildKeywords(title, theme string, tags []string) []string {
	candidates := []string{theme + " 会場", theme + " レンタルスペース", title}
	for _, tag := range tags {
		candidates = append(candidates, tag, tag+" 貸切")
	}
	candidates = append(candidates,
		"レンタルスペース", "貸切 パーティー", "パーティー会場", "イベントスペース",
		"貸し会議室", "誕生日 会場", "女子会 スペース", "撮影スタジオ", "貸切 スペース 安い", "時間貸し スペース",
	)

	seen := make(map[string]struct{}, len(candidates))
	keywords := make([]string, 0, KeywordCount)
	for _, c := range candidates {
		c = Truncate(strings.TrimSpace(c), MaxKeywordWidth)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		keywords = append(keywords, c)
		if len(keywords) == KeywordCount {
			break
		}
	}
	return keywords
}

func summarizeTags(tags []string) string {
	if len(tags) == 0 {
		return "様々な用途に対応"
	}
	if len(tags) > 3 {
		tags = tags[:3]
	}
	return strings.Join(tags, "・") + "に対応"
}

func firstOr(values []string, fallback string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
