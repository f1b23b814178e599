package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

func TestInMemory_AddPreservesOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := NewInMemory()

	require.NoError(t, mem.Add(ctx,
		turns.NewUserTurn("user", "one"),
		nil,
		turns.NewUserTurn("user", "two"),
	))

	ts, err := mem.Turns(ctx)
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, "one", turns.TextContent(ts[0]))
	assert.Equal(t, "two", turns.TextContent(ts[1]))
}

func TestInMemory_SetMarkAndView(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := NewInMemory()

	a := turns.NewUserTurn("user", "old")
	b := turns.NewUserTurn("user", "recent")
	require.NoError(t, mem.Add(ctx, a, b))

	require.NoError(t, mem.SetMark(ctx, []string{a.ID}, turns.MarkCompressed))
	require.NoError(t, mem.SetSummary(ctx, "summary of old"))

	view, err := mem.View(ctx)
	require.NoError(t, err)
	require.Len(t, view, 2)
	assert.Equal(t, "summary of old", turns.TextContent(view[0]))
	assert.Equal(t, "recent", turns.TextContent(view[1]))

	// The raw log still holds everything.
	ts, err := mem.Turns(ctx)
	require.NoError(t, err)
	assert.Len(t, ts, 2)

	excl, err := mem.TurnsExcluding(ctx, turns.MarkCompressed)
	require.NoError(t, err)
	require.Len(t, excl, 1)
	assert.Equal(t, b.ID, excl[0].ID)
}

func TestInMemory_SetMarkUnknownID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := NewInMemory()

	a := turns.NewUserTurn("user", "x")
	require.NoError(t, mem.Add(ctx, a))

	err := mem.SetMark(ctx, []string{a.ID, "missing"}, turns.MarkCompressed)
	require.Error(t, err)
}

func TestInMemory_SetSummaryReplaces(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := NewInMemory()

	require.NoError(t, mem.SetSummary(ctx, "first"))
	require.NoError(t, mem.SetSummary(ctx, "second"))

	view, err := mem.View(ctx)
	require.NoError(t, err)
	require.Len(t, view, 1)
	assert.Equal(t, "second", turns.TextContent(view[0]))
}

func TestInMemory_ConcurrentAdds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := NewInMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = mem.Add(ctx, turns.NewUserTurn("user", fmt.Sprintf("msg-%d", i)))
		}(i)
	}
	wg.Wait()

	ts, err := mem.Turns(ctx)
	require.NoError(t, err)
	assert.Len(t, ts, 20)
}

func TestHintMemory_DrainClears(t *testing.T) {
	t.Parallel()
	h := NewHintMemory()

	h.Add(turns.NewUserTurn("user", "hint-1"), nil)
	h.Add(turns.NewUserTurn("user", "hint-2"))
	assert.Equal(t, 2, h.Len())

	drained := h.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, turns.MarkHint, drained[0].Mark)
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Drain())
}
