package generation

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/width"

	"autocamper/internal/apperr"
)

// Google Ads responsive search ad limits.
const (
	HeadlineCount       = 3
	DescriptionCount    = 2
	KeywordCount        = 10
	MaxHeadlineWidth    = 30
	MaxDescriptionWidth = 90
	MaxKeywordWidth     = 80
)

// Brief is the venue context an ad is written for.
type Brief struct {
	VenueID  string
	Title    string
	Tags     []string
	Theme    string
	Language string
}

// AdCopy holds the text assets of one responsive search ad.
type AdCopy struct {
	Headlines    []string `json:"headlines"`
	Descriptions []string `json:"descriptions"`
	Keywords     []string `json:"keywords"`
}

// Copywriter produces ad copy for a brief.
type Copywriter interface {
	Write(ctx context.Context, brief Brief) (AdCopy, error)
}

// Validate trims every entry and checks counts and the ads text limits.
func (c AdCopy) Validate() (AdCopy, error) {
	out := AdCopy{
		Headlines:    trimAll(c.Headlines),
		Descriptions: trimAll(c.Descriptions),
		Keywords:     trimAll(c.Keywords),
	}
	if err := checkList("headlines", out.Headlines, HeadlineCount, MaxHeadlineWidth); err != nil {
		return AdCopy{}, err
	}
	if err := checkList("descriptions", out.Descriptions, DescriptionCount, MaxDescriptionWidth); err != nil {
		return AdCopy{}, err
	}
	if err := checkList("keywords", out.Keywords, KeywordCount, MaxKeywordWidth); err != nil {
		return AdCopy{}, err
	}
	return out, nil
}

func checkList(field string, values []string, count, maxWidth int) error {
	if len(values) != count {
		return fmt.Errorf("generation: %w: want %d %s, got %d", apperr.ErrGeneration, count, field, len(values))
	}
	for i, v := range values {
		if v == "" {
			return fmt.Errorf("generation: %w: %s[%d] is empty", apperr.ErrGeneration, field, i)
		}
		if w := DisplayWidth(v); w > maxWidth {
			return fmt.Errorf("generation: %w: %s[%d] is %d wide, limit %d", apperr.ErrGeneration, field, i, w, maxWidth)
		}
	}
	return nil
}

// DisplayWidth counts characters the way the ads API does: full-width
// characters (kanji, kana, full-width latin) count twice.
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// Truncate cuts s so that its display width fits max.
func Truncate(s string, max int) string {
	n := 0
	for i, r := range s {
		w := DisplayWidth(string(r))
		if n+w > max {
			return strings.TrimSpace(s[:i])
		}
		n += w
	}
	return s
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
