package vision

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocamper/internal/apperr"
	"autocamper/internal/events"
)

type recordingPublisher struct {
	events []events.Event
}

func (r *recordingPublisher) Publish(evt events.Event) {
	r.events = append(r.events, evt)
}

func TestPipelineProducesSixDistinctKeys(t *testing.T) {
	editor := &echoEditor{tag: true}
	pub := &recordingPublisher{}
	p := &Pipeline{Editor: editor, Rounds: 2, Publisher: events.Publisher(&syncPublisher{inner: pub})}

	set, err := p.Run(context.Background(), []byte("orig"), directives())
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1", "2", "0->1", "1->2", "2->0"}, set.Labels())
	for label, want := range map[string]string{
		"0":    "orig|s0",
		"1":    "orig|s1",
		"2":    "orig|s2",
		"0->1": "orig|s0|s1",
		"1->2": "orig|s1|s2",
		"2->0": "orig|s2|s0",
	} {
		got, ok := set.Get(label)
		require.True(t, ok, label)
		assert.Equal(t, want, string(got), label)
	}
	assert.Len(t, editor.calls, 6)
	assert.NotEmpty(t, pub.events)
}

func TestPipelineThirdRound(t *testing.T) {
	p := &Pipeline{Editor: &echoEditor{tag: true}, Rounds: 3}

	set, err := p.Run(context.Background(), []byte("orig"), directives())
	require.NoError(t, err)

	assert.Equal(t, 7, set.Len())
	got, ok := set.Get("0->1->2")
	require.True(t, ok)
	assert.Equal(t, "orig|s0|s1|s2", string(got))
}

func TestPipelineContentFilteredAddsNothing(t *testing.T) {
	editor := &echoEditor{fail: map[string]error{
		"s1": fmt.Errorf("stability: %w", apperr.ErrContentFiltered),
	}}
	p := &Pipeline{Editor: editor, Rounds: 2}

	set, err := p.Run(context.Background(), []byte("orig"), directives())
	assert.Nil(t, set)
	assert.ErrorIs(t, err, apperr.ErrContentFiltered)
}

func TestPipelineRejectsWrongDirectiveCount(t *testing.T) {
	p := &Pipeline{Editor: &echoEditor{}}
	_, err := p.Run(context.Background(), []byte("orig"), directives()[:2])
	assert.Error(t, err)

	_, err = (&Pipeline{}).Run(context.Background(), []byte("orig"), directives())
	assert.Error(t, err)
}

func TestPipelineStopsAfterFailedRound(t *testing.T) {
	editor := &echoEditor{fail: map[string]error{"s0": errors.New("boom")}}
	_, err := (&Pipeline{Editor: editor, Rounds: 2}).Run(context.Background(), []byte("orig"), directives())
	require.Error(t, err)
	assert.LessOrEqual(t, len(editor.calls), 3, "round 2 never starts")
}

func TestResultSetRejectsDuplicates(t *testing.T) {
	set := NewResultSet()
	require.NoError(t, set.Add("0", []byte("a")))
	assert.Error(t, set.Add("0", []byte("b")))

	got, _ := set.Get("0")
	assert.Equal(t, "a", string(got))
}
