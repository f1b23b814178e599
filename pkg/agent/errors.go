package agent

import (
	"context"

	"github.com/pkg/errors"
)

// ErrInterrupted signals that a reply was cut off by an external
// cancellation, either through the context or through a tool reporting an
// interrupted outcome chunk. It is always re-raised after the
// compensating log writes have been made; callers hand it to
// HandleInterrupt rather than retrying.
var ErrInterrupted = errors.New("interrupted")

// IsInterrupt reports whether err represents external cancellation.
func IsInterrupt(err error) bool {
	return errors.Is(err, ErrInterrupted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
