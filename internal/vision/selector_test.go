package vision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocamper/internal/apperr"
)

func candidateSet(t *testing.T) *ResultSet {
	t.Helper()
	set := NewResultSet()
	for _, label := range []string{"0", "1", "0->1"} {
		require.NoError(t, set.Add(label, []byte("img-"+label)))
	}
	return set
}

func TestSelectReturnsImageFromSet(t *testing.T) {
	model := &scriptedLLM{chatText: "0->1 is best", functions: map[string]string{
		"choose_candidate": `{"label":"0->1"}`,
	}}

	label, img, err := NewSelector(model).Select(context.Background(), "Pizza Party", []byte("orig"), candidateSet(t))
	require.NoError(t, err)
	assert.Equal(t, "0->1", label)
	assert.Equal(t, "img-0->1", string(img))

	require.Len(t, model.chats, 1)
	images := model.chats[0][1].Images
	require.Len(t, images, 4)
	assert.Equal(t, "orig", string(images[0].Data))
	assert.Equal(t, "img-0", string(images[1].Data))
	assert.Equal(t, "img-0->1", string(images[3].Data))
}

func TestSelectRejectsUnknownLabel(t *testing.T) {
	for name, raw := range map[string]string{
		"unknown": `{"label":"2->0"}`,
		"empty":   `{}`,
		"garbage": `[1,2]`,
	} {
		t.Run(name, func(t *testing.T) {
			model := &scriptedLLM{chatText: "meh", functions: map[string]string{"choose_candidate": raw}}
			_, img, err := NewSelector(model).Select(context.Background(), "Pizza Party", []byte("orig"), candidateSet(t))
			assert.ErrorIs(t, err, apperr.ErrSelection)
			assert.Nil(t, img)
		})
	}
}

func TestSelectWithoutFunctionCall(t *testing.T) {
	model := &scriptedLLM{chatText: "meh"}
	_, _, err := NewSelector(model).Select(context.Background(), "Pizza Party", []byte("orig"), candidateSet(t))
	assert.ErrorIs(t, err, apperr.ErrSelection)

	_, _, err = NewSelector(model).Select(context.Background(), "Pizza Party", []byte("orig"), NewResultSet())
	assert.ErrorIs(t, err, apperr.ErrSelection)
}
