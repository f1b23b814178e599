package memory

import (
	"context"

	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// Memory is the conversation log: an append-only sequence of turns, each
// taggable with zero or one lifecycle mark. Turns are never deleted;
// compaction is logical exclusion via marks plus a summary slot.
//
// The append primitive must be safe under concurrent callers: parallel
// tool execution may append result turns concurrently, and each append is
// atomic (one turn, fully formed, written once).
type Memory interface {
	// Add appends turns to the log. Nil entries are ignored.
	Add(ctx context.Context, ts ...*turns.Turn) error
	// AddMarked appends turns carrying the given lifecycle mark.
	AddMarked(ctx context.Context, mark turns.Mark, ts ...*turns.Turn) error

	// Turns returns the raw log in append order.
	Turns(ctx context.Context) ([]*turns.Turn, error)
	// TurnsExcluding returns the raw log without turns carrying the mark.
	// The summary slot is not part of the raw log.
	TurnsExcluding(ctx context.Context, mark turns.Mark) ([]*turns.Turn, error)
	// View returns the prompt view: the compaction summary turn (if set)
	// followed by every turn not marked compressed.
	View(ctx context.Context) ([]*turns.Turn, error)

	// SetMark transitions the mark on the identified turns. It is the
	// only mutation allowed after a turn is appended.
	SetMark(ctx context.Context, ids []string, mark turns.Mark) error
	// SetSummary stores the rendered compaction summary, replacing any
	// previous one.
	SetSummary(ctx context.Context, text string) error
}

// LongTermMemory is the port to a persistent memory collaborator.
type LongTermMemory interface {
	// Retrieve returns context relevant to the given turns, or "" when
	// nothing applies.
	Retrieve(ctx context.Context, ts []*turns.Turn) (string, error)
	// Record persists the given turns.
	Record(ctx context.Context, ts []*turns.Turn) error
}

// Document is one retrieved knowledge item with its relevance score.
type Document struct {
	Content  string
	Score    float64
	Metadata map[string]any
}

// KnowledgeBase is the port to a retrieval collaborator.
type KnowledgeBase interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
}
