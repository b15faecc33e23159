package vision

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"autocamper/internal/events"
)

// edge is one edit in a round: apply directive to the image stored under from.
type edge struct {
	from      string
	directive int
	label     string
}

// Pipeline runs the chained edit rounds for one request.
type Pipeline struct {
	Editor    Editor
	Rounds    int
	Publisher events.Publisher
}

// Run applies the directives in rounds and returns every result.
//
// Round 1 edits the original with each directive ("0", "1", "2"). Round 2
// applies directive (i+1)%3 to result i ("0->1", "1->2", "2->0"). With three
// rounds, directive 2 is also applied to "0->1" ("0->1->2").
func (p *Pipeline) Run(ctx context.Context, original []byte, directives []Directive) (*ResultSet, error) {
	if p == nil || p.Editor == nil {
		return nil, fmt.Errorf("vision: image editor not configured")
	}
	if len(directives) != DirectiveCount {
		return nil, fmt.Errorf("vision: want %d directives, got %d", DirectiveCount, len(directives))
	}

	set := NewResultSet()
	for round, edges := range planRounds(p.Rounds) {
		if err := p.runRound(ctx, round+1, original, directives, set, edges); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func planRounds(rounds int) [][]edge {
	first := make([]edge, DirectiveCount)
	second := make([]edge, DirectiveCount)
	for i := 0; i < DirectiveCount; i++ {
		next := (i + 1) % DirectiveCount
		first[i] = edge{from: "", directive: i, label: strconv.Itoa(i)}
		second[i] = edge{from: strconv.Itoa(i), directive: next, label: fmt.Sprintf("%d->%d", i, next)}
	}
	plan := [][]edge{first, second}
	if rounds >= 3 {
		plan = append(plan, []edge{{from: "0->1", directive: 2, label: "0->1->2"}})
	}
	return plan
}

// runRound fans out one round. Each goroutine writes its own slot, and the
// set is only appended to after the whole round succeeded.
func (p *Pipeline) runRound(ctx context.Context, round int, original []byte, directives []Directive, set *ResultSet, edges []edge) error {
	outputs := make([][]byte, len(edges))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range edges {
		input := original
		if e.from != "" {
			img, ok := set.Get(e.from)
			if !ok {
				return fmt.Errorf("vision: round %d: missing input %q", round, e.from)
			}
			input = img
		}
		d := directives[e.directive]
		g.Go(func() error {
			res, err := p.Editor.Edit(gctx, input, d.Replace, d.Search)
			if err != nil {
				return fmt.Errorf("vision: round %d edit %s: %w", round, e.label, err)
			}
			outputs[i] = res.Image
			p.publish(ctx, "edit_done", e.label, fmt.Sprintf("round %d seed %s", round, res.Seed))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.publish(ctx, "edit_failed", "", err.Error())
		return err
	}

	for i, e := range edges {
		if err := set.Add(e.label, outputs[i]); err != nil {
			return err
		}
	}
	p.publish(ctx, "round_complete", "", "round "+strconv.Itoa(round))
	return nil
}

func (p *Pipeline) publish(ctx context.Context, stage, label, detail string) {
	if p.Publisher == nil {
		return
	}
	p.Publisher.Publish(events.Event{
		Kind:      "edit",
		RequestID: middleware.GetReqID(ctx),
		Stage:     stage,
		Label:     label,
		Detail:    detail,
	})
}
