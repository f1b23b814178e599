package model

import (
	"context"

	"github.com/go-go-golems/mangiafuoco/pkg/schema"
	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// ToolChoice defines how the model should choose tools during one
// reasoning step. The empty value leaves the decision to the provider.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

// ToolSchema advertises one callable tool to the model.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Request bundles everything a model needs for one generation.
type Request struct {
	// Prompt is the provider-specific representation produced by a Formatter.
	Prompt any
	// Tools lists the tool schemas available for this step.
	Tools []ToolSchema
	// ToolChoice constrains tool usage for this step.
	ToolChoice ToolChoice
	// Schema, when set, asks the model for a structured result validated
	// against it; validated data is returned in Output.Metadata.
	Schema *schema.Schema
}

// Usage reports token consumption for one generation.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Output is one fully assembled model response.
type Output struct {
	// Blocks holds the generated content (text, tool calls, audio).
	Blocks []turns.Block
	// Metadata carries structured data when Request.Schema was set.
	Metadata map[string]any
	Usage    *Usage
}

// Chunk is one increment of a streaming response. Blocks carries the
// cumulative content so far; each chunk supersedes the previous one.
type Chunk struct {
	Blocks   []turns.Block
	Metadata map[string]any
	Last     bool
}

// ChunkHandler processes streaming chunks. Returning an error aborts the
// stream and surfaces the error from GenerateStream.
type ChunkHandler func(Chunk) error

// Model is the language-model port. Implementations must honor context
// cancellation at every network suspension point.
//
// Generate must work regardless of the Streaming flag (streaming
// implementations assemble internally); GenerateStream surfaces every
// chunk to the handler before returning the assembled output. On
// cancellation mid-stream, GenerateStream returns the context error; the
// caller keeps whatever content the last delivered chunk carried.
type Model interface {
	Streaming() bool
	Generate(ctx context.Context, req Request) (*Output, error)
	GenerateStream(ctx context.Context, req Request, onChunk ChunkHandler) (*Output, error)
}

// Formatter converts ordered turns into the provider-specific prompt
// representation. Implementations must be pure: formatting the same turns
// twice yields identical output.
type Formatter interface {
	Format(ts []*turns.Turn) (any, error)
}

// TokenCounter measures the token cost of a formatted prompt. It must be
// bound to the same model family as the agent for compaction thresholds
// to be meaningful.
type TokenCounter interface {
	Count(prompt any) (int, error)
}

// SpeechSynthesizer is the text-to-speech port. Push accepts incremental
// input while a response streams; Synthesize produces speech for a
// finished turn. Both yield audio blocks. Synthesize's onChunk may be
// nil when the caller only wants the assembled result.
type SpeechSynthesizer interface {
	// SupportsStreamingInput reports whether Push may be called with
	// partial turns while the model is still streaming.
	SupportsStreamingInput() bool
	// Streaming reports whether Synthesize delivers audio incrementally
	// through the handler before returning.
	Streaming() bool
	Push(ctx context.Context, t *turns.Turn) ([]turns.Block, error)
	Synthesize(ctx context.Context, t *turns.Turn, onChunk func(audio []turns.Block) error) ([]turns.Block, error)
}
