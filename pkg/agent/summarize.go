package agent

import (
	"context"

	"github.com/pkg/errors"

	"github.com/go-go-golems/mangiafuoco/pkg/model"
	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// summarizing produces the fail-open reply when the iteration budget runs
// out without a final answer: one last generation with no tools, asked to
// summarize the situation directly. The reply is recorded like any other
// reasoning turn.
func (a *Agent) summarizing(ctx context.Context) (*turns.Turn, error) {
	a.logger.Warn().Int("max_iters", a.maxIters).
		Msg("iteration budget exhausted, summarizing")

	view, err := a.mem.View(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read memory view")
	}
	hint := turns.NewUserTurn("user",
		"<system-hint>You failed to generate a response within the maximum iterations. "+
			"Now respond directly by summarizing the current situation.</system-hint>")

	prompt := make([]*turns.Turn, 0, len(view)+2)
	prompt = append(prompt, turns.NewSystemTurn(a.sysPrompt))
	prompt = append(prompt, view...)
	prompt = append(prompt, hint)

	formatted, err := a.formatter.Format(prompt)
	if err != nil {
		return nil, errors.Wrap(err, "format summarizing prompt")
	}

	msg, genErr := a.generate(ctx, model.Request{Prompt: formatted})
	if addErr := a.mem.Add(context.WithoutCancel(ctx), msg); addErr != nil {
		return nil, errors.Wrap(addErr, "record summarizing turn")
	}
	if genErr != nil {
		if IsInterrupt(genErr) {
			return msg, errors.WithStack(ErrInterrupted)
		}
		return nil, errors.Wrap(genErr, "summarizing generation")
	}
	return msg, nil
}
