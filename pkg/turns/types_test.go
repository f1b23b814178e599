package turns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTurn_AssignsIDAndRole(t *testing.T) {
	t.Parallel()

	trn := NewTurn(RoleAssistant, "helper", NewTextBlock("hello"))
	require.NotEmpty(t, trn.ID)
	assert.Equal(t, RoleAssistant, trn.Role)
	assert.Equal(t, "helper", trn.Name)
	require.Len(t, trn.Blocks, 1)
	assert.Equal(t, "hello", trn.Blocks[0].Payload[PayloadKeyText])
}

func TestClone_IsIndependent(t *testing.T) {
	t.Parallel()

	orig := NewUserTurn("user", "question")
	orig.Metadata = map[string]any{"k": "v"}

	cl := orig.Clone()
	cl.Blocks[0].Payload[PayloadKeyText] = "mutated"
	cl.Metadata["k"] = "w"

	assert.Equal(t, "question", orig.Blocks[0].Payload[PayloadKeyText])
	assert.Equal(t, "v", orig.Metadata["k"])
	assert.Equal(t, orig.ID, cl.ID)
}

func TestFindBlocksByKind(t *testing.T) {
	t.Parallel()

	trn := NewTurn(RoleAssistant, "helper",
		NewTextBlock("thinking"),
		NewToolCallBlock("call-1", "search", map[string]any{"q": "go"}),
		NewToolCallBlock("call-2", "fetch", map[string]any{"url": "x"}),
	)

	calls := FindBlocksByKind(trn, BlockKindToolCall)
	require.Len(t, calls, 2)
	assert.Equal(t, "call-1", BlockToolID(calls[0]))
	assert.Equal(t, "fetch", BlockToolName(calls[1]))

	assert.True(t, HasBlocksOfKind(trn, BlockKindText))
	assert.False(t, HasBlocksOfKind(trn, BlockKindAudio))
}

func TestTextContent_JoinsTextBlocksOnly(t *testing.T) {
	t.Parallel()

	trn := NewTurn(RoleAssistant, "helper",
		NewTextBlock("first"),
		NewToolCallBlock("call-1", "search", nil),
		NewTextBlock("second"),
	)
	assert.Equal(t, "first\nsecond", TextContent(trn))
}

func TestToolCallBlock_PayloadShape(t *testing.T) {
	t.Parallel()

	b := NewToolCallBlock("call-9", "lookup", map[string]any{"key": "v"})
	assert.Equal(t, BlockKindToolCall, b.Kind)
	assert.Equal(t, "call-9", b.ID)
	assert.Equal(t, "call-9", b.Payload[PayloadKeyID])
	assert.Equal(t, "lookup", b.Payload[PayloadKeyName])

	u := NewToolUseBlock("call-9", "lookup", "result text")
	assert.Equal(t, BlockKindToolUse, u.Kind)
	assert.NotEqual(t, "call-9", u.ID)
	assert.Equal(t, "call-9", BlockToolID(u))
	assert.Equal(t, "result text", u.Payload[PayloadKeyResult])
}

func TestTurnYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	trn := NewTurn(RoleAssistant, "helper",
		NewTextBlock("hello"),
		NewToolCallBlock("call-1", "search", map[string]any{"q": "go"}),
	)
	trn.Mark = MarkHint

	data, err := ToYAML(trn)
	require.NoError(t, err)

	back, err := FromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, trn.ID, back.ID)
	assert.Equal(t, MarkHint, back.Mark)
	require.Len(t, back.Blocks, 2)
	assert.Equal(t, BlockKindToolCall, back.Blocks[1].Kind)
}
