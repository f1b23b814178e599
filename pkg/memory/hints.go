package memory

import (
	"sync"

	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// HintMemory is the one-shot side-log of ephemeral guidance turns. Hints
// staged here are appended to exactly one reasoning prompt and cleared by
// Drain regardless of how that step ends.
type HintMemory struct {
	mu    sync.Mutex
	hints []*turns.Turn
}

func NewHintMemory() *HintMemory {
	return &HintMemory{}
}

// Add stages hint turns for the next reasoning step. Nil entries are
// ignored; staged hints carry the hint mark.
func (h *HintMemory) Add(ts ...*turns.Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range ts {
		if t == nil {
			continue
		}
		t.Mark = turns.MarkHint
		h.hints = append(h.hints, t)
	}
}

// Drain returns all staged hints and empties the channel.
func (h *HintMemory) Drain() []*turns.Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.hints
	h.hints = nil
	return out
}

// Len reports the number of staged hints.
func (h *HintMemory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hints)
}
