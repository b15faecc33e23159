package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"autocamper/internal/apperr"
	"autocamper/internal/events"
	"autocamper/internal/llm"
)

// scriptedLLM answers free-text calls with a fixed description and returns
// canned arguments per forced function name.
type scriptedLLM struct {
	mu        sync.Mutex
	chatText  string
	chatErr   error
	functions map[string]string
	chats     [][]llm.ChatMessage
	calls     []string
}

func (s *scriptedLLM) ChatCompletion(_ context.Context, messages []llm.ChatMessage, _ float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append(s.chats, messages)
	if s.chatErr != nil {
		return "", s.chatErr
	}
	return s.chatText, nil
}

func (s *scriptedLLM) CallFunction(_ context.Context, _ []llm.ChatMessage, fn llm.Function) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fn.Name)
	raw, ok := s.functions[fn.Name]
	if !ok {
		return nil, llm.ErrNoFunctionCall
	}
	return json.RawMessage(raw), nil
}

const threeEdits = `{"search":["lamp","table","wall"],"replace":["pizza lamp","pizza table","pizza mural"]}`

type editCall struct {
	input  []byte
	search string
}

// echoEditor returns its input unchanged, or appends "|search" when tag is set.
type echoEditor struct {
	mu    sync.Mutex
	tag   bool
	fail  map[string]error
	calls []editCall
}

func (e *echoEditor) Edit(_ context.Context, img []byte, _, search string) (EditResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, editCall{input: img, search: search})
	if err := e.fail[search]; err != nil {
		return EditResult{}, err
	}
	out := append([]byte(nil), img...)
	if e.tag {
		out = append(out, []byte("|"+search)...)
	}
	return EditResult{Image: out, FinishReason: "SUCCESS", Seed: "42"}, nil
}

func (e *echoEditor) inputsFor(search string) [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out [][]byte
	for _, c := range e.calls {
		if c.search == search {
			out = append(out, c.input)
		}
	}
	return out
}

func samplePNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func directives() []Directive {
	out := make([]Directive, DirectiveCount)
	for i := range out {
		out[i] = Directive{Search: fmt.Sprintf("s%d", i), Replace: fmt.Sprintf("r%d", i)}
	}
	return out
}

// syncPublisher serialises Publish calls coming from the round goroutines.
type syncPublisher struct {
	mu    sync.Mutex
	inner events.Publisher
}

func (s *syncPublisher) Publish(evt events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Publish(evt)
}

var errContentFilteredForTest = fmt.Errorf("stability: edit: %w", apperr.ErrContentFiltered)
