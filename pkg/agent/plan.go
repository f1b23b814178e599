package agent

import (
	"context"

	"github.com/go-go-golems/mangiafuoco/pkg/tools"
	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// PlanTracker is the port to a hierarchical task/plan collaborator. Its
// current hint, when present, is staged as a one-shot guidance turn
// before the next reasoning step; its tools are registered alongside the
// agent's own.
type PlanTracker interface {
	// CurrentHint returns a guidance turn for the next reasoning step,
	// or nil when the tracker has nothing to say.
	CurrentHint(ctx context.Context) (*turns.Turn, error)
	// Tools exposes the tracker's own tool set.
	Tools() []tools.Definition
}
