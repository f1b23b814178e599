package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

func drain(t *testing.T, stream ResponseStream) []ResponseChunk {
	t.Helper()
	var out []ResponseChunk
	for c := range stream {
		out = append(out, c)
	}
	return out
}

func chunkText(c ResponseChunk) string {
	trn := &turns.Turn{Blocks: c.Content}
	return turns.TextContent(trn)
}

type echoInput struct {
	Text string `json:"text"`
}

func TestNewToolFromFunc_StringResultPassthrough(t *testing.T) {
	t.Parallel()

	def, err := NewToolFromFunc("echo", "echoes text", func(in echoInput) (string, error) {
		return "echo: " + in.Text, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "echo", def.Name)
	assert.True(t, def.ValidateArguments)
	assert.Equal(t, "object", def.Parameters["type"])

	stream, err := def.Handler(context.Background(), json.RawMessage(`{"text":"hi"}`))
	require.NoError(t, err)
	chunks := drain(t, stream)
	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].Last)
	assert.Equal(t, "echo: hi", chunkText(chunks[0]))
}

func TestNewToolFromFunc_StructResultIsJSON(t *testing.T) {
	t.Parallel()

	def, err := NewToolFromFunc("count", "counts", func(ctx context.Context, in echoInput) (map[string]any, error) {
		require.NotNil(t, ctx)
		return map[string]any{"length": len(in.Text)}, nil
	})
	require.NoError(t, err)

	stream, err := def.Handler(context.Background(), json.RawMessage(`{"text":"four"}`))
	require.NoError(t, err)
	chunks := drain(t, stream)
	require.Len(t, chunks, 1)
	assert.JSONEq(t, `{"length":4}`, chunkText(chunks[0]))
}

func TestNewToolFromFunc_HandlerErrorBecomesChunk(t *testing.T) {
	t.Parallel()

	def, err := NewToolFromFunc("failing", "always fails", func(in echoInput) (string, error) {
		return "", assert.AnError
	})
	require.NoError(t, err)

	stream, err := def.Handler(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	chunks := drain(t, stream)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunkText(chunks[0]), "Error:")
}

func TestNewToolFromFunc_RejectsNonFunctions(t *testing.T) {
	t.Parallel()

	_, err := NewToolFromFunc("bad", "not a func", 42)
	require.Error(t, err)
}

func TestToolkit_RegisterReplaceAndList(t *testing.T) {
	t.Parallel()
	tk := NewToolkit()

	handler := func(ctx context.Context, args json.RawMessage) (ResponseStream, error) {
		return NewResponse(TextChunk("v1", true)), nil
	}
	require.NoError(t, tk.Register(Definition{Name: "b", Handler: handler}))
	require.NoError(t, tk.Register(Definition{Name: "a", Handler: handler}))
	require.NoError(t, tk.Register(Definition{Name: "a", Description: "replaced", Handler: handler}))

	require.Error(t, tk.Register(Definition{Handler: handler}))
	require.Error(t, tk.Register(Definition{Name: "nohandler"}))

	defs := tk.List()
	require.Len(t, defs, 2)
	assert.Equal(t, "a", defs[0].Name)
	assert.Equal(t, "replaced", defs[0].Description)
	assert.Equal(t, "b", defs[1].Name)

	schemas := tk.Schemas()
	require.Len(t, schemas, 2)
	assert.Equal(t, "a", schemas[0].Name)

	tk.Unregister("a")
	tk.Unregister("a")
	assert.False(t, tk.Has("a"))
	assert.True(t, tk.Has("b"))
}

func TestToolkit_InvokeUnknownToolYieldsErrorChunk(t *testing.T) {
	t.Parallel()
	tk := NewToolkit()

	stream, err := tk.Invoke(context.Background(), ToolCall{ID: "c1", Name: "missing"})
	require.NoError(t, err)
	chunks := drain(t, stream)
	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].Last)
	assert.Contains(t, chunkText(chunks[0]), "tool not found")
}

func TestToolkit_InvokeValidatesArguments(t *testing.T) {
	t.Parallel()
	tk := NewToolkit()

	def, err := NewToolFromFunc("echo", "echoes", func(in echoInput) (string, error) {
		return in.Text, nil
	})
	require.NoError(t, err)
	require.NoError(t, tk.Register(*def))

	stream, err := tk.Invoke(context.Background(), ToolCall{
		ID:        "c1",
		Name:      "echo",
		Arguments: json.RawMessage(`{"text":123}`),
	})
	require.NoError(t, err)
	chunks := drain(t, stream)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunkText(chunks[0]), "argument validation failed")
}

func TestToolkit_InvokeSkipsValidationWhenDisabled(t *testing.T) {
	t.Parallel()
	tk := NewToolkit()

	require.NoError(t, tk.Register(Definition{
		Name:       "raw",
		Parameters: map[string]any{"type": "object", "properties": map[string]any{"n": map[string]any{"type": "integer"}}},
		Handler: func(ctx context.Context, args json.RawMessage) (ResponseStream, error) {
			return NewResponse(TextChunk(string(args), true)), nil
		},
		ValidateArguments: false,
	}))

	stream, err := tk.Invoke(context.Background(), ToolCall{
		ID:        "c1",
		Name:      "raw",
		Arguments: json.RawMessage(`{"n":"not an int"}`),
	})
	require.NoError(t, err)
	chunks := drain(t, stream)
	require.Len(t, chunks, 1)
	assert.JSONEq(t, `{"n":"not an int"}`, chunkText(chunks[0]))
}
