package turns

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// BlockKind represents the kind of a block within a Turn.
type BlockKind int

const (
	BlockKindText BlockKind = iota
	BlockKindToolCall
	BlockKindToolUse
	BlockKindAudio
	BlockKindOther
)

// String returns a human-readable identifier for the BlockKind.
func (k BlockKind) String() string {
	switch k {
	case BlockKindText:
		return "text"
	case BlockKindToolCall:
		return "tool_call"
	case BlockKindToolUse:
		return "tool_use"
	case BlockKindAudio:
		return "audio"
	default:
		return "other"
	}
}

// YAML serialization for BlockKind using stable string names
func (k BlockKind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

func (k *BlockKind) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		*k = BlockKindOther
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		*k = BlockKindText
	case "tool_call":
		*k = BlockKindToolCall
	case "tool_use":
		*k = BlockKindToolUse
	case "audio":
		*k = BlockKindAudio
	default:
		*k = BlockKindOther
	}
	return nil
}

// Mark is the lifecycle tag attached to a Turn. A turn carries at most one
// mark at a time; filtered memory views exclude a given mark.
type Mark int

const (
	MarkNone Mark = iota
	// MarkHint tags one-shot hint turns that are cleared after a single use.
	MarkHint
	// MarkCompressed tags turns that have been folded into a compaction
	// summary and are excluded from future prompt views.
	MarkCompressed
)

// String returns a human-readable identifier for the Mark.
func (m Mark) String() string {
	switch m {
	case MarkHint:
		return "hint"
	case MarkCompressed:
		return "compressed"
	default:
		return "none"
	}
}

// IsZero allows YAML omitempty to treat MarkNone as absent.
func (m Mark) IsZero() bool {
	return m == MarkNone
}

// YAML serialization for Mark using stable string names
func (m Mark) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

func (m *Mark) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		*m = MarkNone
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hint":
		*m = MarkHint
	case "compressed":
		*m = MarkCompressed
	default:
		*m = MarkNone
	}
	return nil
}
