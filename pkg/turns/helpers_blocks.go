package turns

import "github.com/google/uuid"

// Convenience constructors for commonly used Turn and Block shapes.

// NewTurn returns a Turn with a fresh identity and the given blocks.
func NewTurn(role, name string, blocks ...Block) *Turn {
	t := &Turn{
		ID:   uuid.NewString(),
		Name: name,
		Role: role,
	}
	AppendBlocks(t, blocks...)
	return t
}

// NewUserTurn returns a user Turn containing a single text block.
func NewUserTurn(name, text string) *Turn {
	return NewTurn(RoleUser, name, NewTextBlock(text))
}

// NewSystemTurn returns a system Turn containing a single text block.
func NewSystemTurn(text string) *Turn {
	return NewTurn(RoleSystem, "system", NewTextBlock(text))
}

// NewTextBlock returns a Block carrying plain text.
func NewTextBlock(text string) Block {
	return Block{
		ID:      uuid.NewString(),
		Kind:    BlockKindText,
		Payload: map[string]any{PayloadKeyText: text},
	}
}

// NewToolCallBlock returns a Block requesting invocation of a tool.
// id is the identifier used to correlate the matching tool_use result.
// name is the tool name. args contains the structured input.
func NewToolCallBlock(id string, name string, args any) Block {
	return Block{
		ID:   id,
		Kind: BlockKindToolCall,
		Payload: map[string]any{
			PayloadKeyID:   id,
			PayloadKeyName: name,
			PayloadKeyArgs: args,
		},
	}
}

// NewToolUseBlock returns a Block capturing the result of a tool execution.
// id must match the corresponding tool_call id; name is the producing tool.
func NewToolUseBlock(id string, name string, result any) Block {
	return Block{
		ID:   uuid.NewString(),
		Kind: BlockKindToolUse,
		Payload: map[string]any{
			PayloadKeyID:     id,
			PayloadKeyName:   name,
			PayloadKeyResult: result,
		},
	}
}

// NewAudioBlock returns a Block carrying audio content.
func NewAudioBlock(data []byte, format string) Block {
	return Block{
		ID:   uuid.NewString(),
		Kind: BlockKindAudio,
		Payload: map[string]any{
			PayloadKeyAudio:  data,
			PayloadKeyFormat: format,
		},
	}
}

// BlockToolID returns the correlation id carried in a tool_call or
// tool_use block payload.
func BlockToolID(b Block) string {
	if s, ok := b.Payload[PayloadKeyID].(string); ok {
		return s
	}
	return ""
}

// BlockToolName returns the tool name carried in a tool_call or tool_use
// block payload.
func BlockToolName(b Block) string {
	if s, ok := b.Payload[PayloadKeyName].(string); ok {
		return s
	}
	return ""
}
