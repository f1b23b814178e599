package tools

import (
	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// ResponseChunk is one increment of a tool invocation's lazy outcome
// sequence. Content carries the partial output payload; Last flags the
// final chunk; Interrupted reports that the tool was cut off externally.
type ResponseChunk struct {
	Content     []turns.Block
	Metadata    map[string]any
	Last        bool
	Interrupted bool
}

// ResponseStream is a finite, consumed-exactly-once sequence of chunks.
type ResponseStream <-chan ResponseChunk

// NewResponse returns a closed stream yielding the given chunks in order.
func NewResponse(chunks ...ResponseChunk) ResponseStream {
	ch := make(chan ResponseChunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

// TextChunk builds a single-text-block chunk.
func TextChunk(text string, last bool) ResponseChunk {
	return ResponseChunk{
		Content: []turns.Block{turns.NewTextBlock(text)},
		Last:    last,
	}
}

// ErrorChunk builds a final chunk carrying an error description as
// ordinary tool output, so the model can see and react to it.
func ErrorChunk(text string) ResponseChunk {
	return ResponseChunk{
		Content: []turns.Block{turns.NewTextBlock(text)},
		Last:    true,
	}
}
