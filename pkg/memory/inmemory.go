package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// InMemory is the default Memory implementation, storing turns in an
// in-process slice. Appends are serialized with a mutex so concurrent
// tool results interleave without tearing.
type InMemory struct {
	mu      sync.RWMutex
	log     []*turns.Turn
	summary *turns.Turn
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Add(ctx context.Context, ts ...*turns.Turn) error {
	return m.AddMarked(ctx, turns.MarkNone, ts...)
}

func (m *InMemory) AddMarked(ctx context.Context, mark turns.Mark, ts ...*turns.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range ts {
		if t == nil {
			continue
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.Mark = mark
		m.log = append(m.log, t)
	}
	return nil
}

func (m *InMemory) Turns(ctx context.Context) ([]*turns.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*turns.Turn{}, m.log...), nil
}

func (m *InMemory) TurnsExcluding(ctx context.Context, mark turns.Mark) ([]*turns.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*turns.Turn, 0, len(m.log))
	for _, t := range m.log {
		if t.Mark == mark {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *InMemory) View(ctx context.Context) ([]*turns.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*turns.Turn, 0, len(m.log)+1)
	if m.summary != nil {
		out = append(out, m.summary)
	}
	for _, t := range m.log {
		if t.Mark == turns.MarkCompressed {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *InMemory) SetMark(ctx context.Context, ids []string, mark turns.Mark) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lookup := map[string]bool{}
	for _, id := range ids {
		lookup[id] = true
	}
	found := 0
	for _, t := range m.log {
		if lookup[t.ID] {
			t.Mark = mark
			found++
		}
	}
	if found != len(lookup) {
		return errors.Errorf("marked %d of %d turns", found, len(lookup))
	}
	return nil
}

func (m *InMemory) SetSummary(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = turns.NewUserTurn("memory", text)
	return nil
}

var _ Memory = (*InMemory)(nil)
