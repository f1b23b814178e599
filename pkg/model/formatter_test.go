package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

func TestTranscriptFormatter_RendersRolesAndText(t *testing.T) {
	t.Parallel()

	f := NewTranscriptFormatter()
	out, err := f.Format([]*turns.Turn{
		turns.NewSystemTurn("be helpful"),
		nil,
		turns.NewUserTurn("alice", "hello"),
	})
	require.NoError(t, err)

	msgs, ok := out.([]ChatMessage)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, turns.RoleSystem, msgs[0].Role)
	assert.Equal(t, "be helpful", msgs[0].Content)
	assert.Equal(t, turns.RoleUser, msgs[1].Role)
	assert.Equal(t, "alice", msgs[1].Name)
}

func TestTranscriptFormatter_ToolCallsAndResults(t *testing.T) {
	t.Parallel()

	f := NewTranscriptFormatter()
	call := turns.NewTurn(turns.RoleAssistant, "bot",
		turns.NewTextBlock("let me check"),
		turns.NewToolCallBlock("c1", "search", map[string]any{"q": "weather"}),
	)
	result := turns.NewTurn(turns.RoleSystem, "system",
		turns.NewToolUseBlock("c1", "search", "sunny"),
	)

	out, err := f.Format([]*turns.Turn{call, result})
	require.NoError(t, err)
	msgs := out.([]ChatMessage)
	require.Len(t, msgs, 2)

	require.Len(t, msgs[0].ToolCalls, 1)
	assert.Equal(t, "c1", msgs[0].ToolCalls[0].ID)
	assert.Equal(t, "search", msgs[0].ToolCalls[0].Name)
	assert.JSONEq(t, `{"q":"weather"}`, msgs[0].ToolCalls[0].Arguments)
	assert.Equal(t, "let me check", msgs[0].Content)

	require.NotNil(t, msgs[1].ToolResult)
	assert.Equal(t, "c1", msgs[1].ToolResult.ID)
	assert.JSONEq(t, `"sunny"`, msgs[1].ToolResult.Result)
}

func TestTranscriptFormatter_IsPure(t *testing.T) {
	t.Parallel()

	f := NewTranscriptFormatter()
	ts := []*turns.Turn{
		turns.NewUserTurn("u", "same input"),
		turns.NewTurn(turns.RoleAssistant, "bot",
			turns.NewToolCallBlock("c1", "search", map[string]any{"q": "x"})),
	}

	first, err := f.Format(ts)
	require.NoError(t, err)
	second, err := f.Format(ts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
