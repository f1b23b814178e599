package turns

// Block represents a single atomic unit of content within a Turn.
type Block struct {
	ID      string         `yaml:"id,omitempty"`
	Kind    BlockKind      `yaml:"kind"`
	Payload map[string]any `yaml:"payload,omitempty"`
	// Metadata stores arbitrary metadata about the block
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// Turn is one recorded message in the conversation log. It contains an
// ordered list of Blocks, the producer role, and associated metadata.
// Turns are immutable once appended to memory, except for Mark transitions.
type Turn struct {
	ID   string `yaml:"id,omitempty"`
	Name string `yaml:"name,omitempty"`
	Role string `yaml:"role"`
	// Blocks holds the ordered content of the turn
	Blocks []Block `yaml:"blocks"`
	// Metadata stores arbitrary metadata about the turn
	Metadata map[string]any `yaml:"metadata,omitempty"`
	// Mark is the lifecycle tag governing visibility in filtered views
	Mark Mark `yaml:"mark,omitempty"`
}

// Clone returns a deep copy of the Turn suitable for mutation without
// affecting the original. Payload and metadata maps are copied shallowly
// (reference-typed values inside remain shared).
func (t *Turn) Clone() *Turn {
	if t == nil {
		return nil
	}
	out := &Turn{
		ID:       t.ID,
		Name:     t.Name,
		Role:     t.Role,
		Metadata: cloneMap(t.Metadata),
		Mark:     t.Mark,
	}
	if len(t.Blocks) == 0 {
		return out
	}
	out.Blocks = make([]Block, len(t.Blocks))
	for i := range t.Blocks {
		b := t.Blocks[i]
		b.Payload = cloneMap(b.Payload)
		b.Metadata = cloneMap(b.Metadata)
		out.Blocks[i] = b
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// AppendBlock appends a Block to a Turn.
func AppendBlock(t *Turn, b Block) {
	t.Blocks = append(t.Blocks, b)
}

// AppendBlocks appends multiple Blocks preserving order.
func AppendBlocks(t *Turn, blocks ...Block) {
	for _, b := range blocks {
		AppendBlock(t, b)
	}
}

// PrependBlock inserts a block at the beginning of the Turn's block slice.
func PrependBlock(t *Turn, b Block) {
	if t == nil {
		return
	}
	t.Blocks = append([]Block{b}, t.Blocks...)
}

// FindBlocksByKind returns the blocks of the requested kinds in turn order.
func FindBlocksByKind(t *Turn, kinds ...BlockKind) []Block {
	if t == nil {
		return nil
	}
	lookup := map[BlockKind]bool{}
	for _, k := range kinds {
		lookup[k] = true
	}
	ret := make([]Block, 0, len(t.Blocks))
	for _, b := range t.Blocks {
		if lookup[b.Kind] {
			ret = append(ret, b)
		}
	}
	return ret
}

// HasBlocksOfKind reports whether the turn contains at least one block of
// any of the requested kinds.
func HasBlocksOfKind(t *Turn, kinds ...BlockKind) bool {
	return len(FindBlocksByKind(t, kinds...)) > 0
}

// TextContent joins the text payloads of all text blocks in the turn.
func TextContent(t *Turn) string {
	if t == nil {
		return ""
	}
	out := ""
	for _, b := range FindBlocksByKind(t, BlockKindText) {
		if s, ok := b.Payload[PayloadKeyText].(string); ok {
			if out != "" {
				out += "\n"
			}
			out += s
		}
	}
	return out
}
