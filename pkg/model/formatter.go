package model

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// ChatMessage is the generic chat-completion wire shape produced by
// TranscriptFormatter.
type ChatMessage struct {
	Role       string          `json:"role"`
	Name       string          `json:"name,omitempty"`
	Content    string          `json:"content,omitempty"`
	ToolCalls  []ChatToolCall  `json:"tool_calls,omitempty"`
	ToolResult *ChatToolResult `json:"tool_result,omitempty"`
}

type ChatToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ChatToolResult struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Result string `json:"result"`
}

// TranscriptFormatter renders turns into a []ChatMessage transcript. It is
// stateless, so formatting the same turns twice yields identical output.
type TranscriptFormatter struct{}

func NewTranscriptFormatter() *TranscriptFormatter {
	return &TranscriptFormatter{}
}

func (f *TranscriptFormatter) Format(ts []*turns.Turn) (any, error) {
	out := make([]ChatMessage, 0, len(ts))
	for _, t := range ts {
		if t == nil {
			continue
		}
		msg := ChatMessage{Role: t.Role, Name: t.Name}
		for _, b := range t.Blocks {
			switch b.Kind {
			case turns.BlockKindText:
				if s, ok := b.Payload[turns.PayloadKeyText].(string); ok {
					if msg.Content != "" {
						msg.Content += "\n"
					}
					msg.Content += s
				}
			case turns.BlockKindToolCall:
				args, err := json.Marshal(b.Payload[turns.PayloadKeyArgs])
				if err != nil {
					return nil, errors.Wrap(err, "marshal tool call arguments")
				}
				msg.ToolCalls = append(msg.ToolCalls, ChatToolCall{
					ID:        turns.BlockToolID(b),
					Name:      turns.BlockToolName(b),
					Arguments: string(args),
				})
			case turns.BlockKindToolUse:
				result, err := json.Marshal(b.Payload[turns.PayloadKeyResult])
				if err != nil {
					return nil, errors.Wrap(err, "marshal tool result")
				}
				msg.ToolResult = &ChatToolResult{
					ID:     turns.BlockToolID(b),
					Name:   turns.BlockToolName(b),
					Result: string(result),
				}
			case turns.BlockKindAudio:
				// Audio is not representable in a text transcript; skipped.
			}
		}
		out = append(out, msg)
	}
	return out, nil
}

var _ Formatter = (*TranscriptFormatter)(nil)
