package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/go-go-golems/mangiafuoco/pkg/events"
	"github.com/go-go-golems/mangiafuoco/pkg/model"
	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// reasoning runs one model generation over the current memory view plus
// any staged hints. The produced assistant turn is recorded in memory
// exactly once, including when the generation is interrupted midway; in
// that case compensating tool results are recorded for every tool call
// already emitted, and the interrupt error is returned alongside the
// partial turn.
func (a *Agent) reasoning(ctx context.Context, toolChoice model.ToolChoice) (*turns.Turn, error) {
	if a.plan != nil {
		hint, err := a.plan.CurrentHint(ctx)
		if err != nil {
			a.logger.Warn().Err(err).Msg("plan hint lookup failed")
		} else if hint != nil {
			a.hints.Add(hint)
		}
	}

	// Hints are consumed here, before the step can fail, so a hint is
	// never presented twice.
	hintTurns := a.hints.Drain()

	view, err := a.mem.View(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read memory view")
	}
	prompt := make([]*turns.Turn, 0, len(view)+len(hintTurns)+1)
	prompt = append(prompt, turns.NewSystemTurn(a.sysPrompt))
	prompt = append(prompt, view...)
	prompt = append(prompt, hintTurns...)

	formatted, err := a.formatter.Format(prompt)
	if err != nil {
		return nil, errors.Wrap(err, "format prompt")
	}

	req := model.Request{
		Prompt:     formatted,
		Tools:      a.toolkit.Schemas(),
		ToolChoice: toolChoice,
	}

	msg, genErr := a.generate(ctx, req)

	// The turn enters memory exactly once, whole or partial.
	if err := a.mem.Add(context.WithoutCancel(ctx), msg); err != nil {
		return nil, errors.Wrap(err, "record reasoning turn")
	}

	if genErr != nil {
		if IsInterrupt(genErr) {
			a.compensateInterruptedToolCalls(ctx, msg)
			return msg, errors.WithStack(ErrInterrupted)
		}
		return nil, errors.Wrap(genErr, "model generation")
	}
	return msg, nil
}

// generate performs one model call, streaming when the model supports
// it, and publishes lifecycle events along the way. The returned turn
// holds whatever content was produced, even on error.
func (a *Agent) generate(ctx context.Context, req model.Request) (*turns.Turn, error) {
	msg := turns.NewTurn(turns.RoleAssistant, a.name)
	meta := events.EventMetadata{
		ID:        uuid.New(),
		AgentName: a.name,
		TurnID:    msg.ID,
	}
	events.PublishEventToContext(ctx, events.NewStartEvent(meta))

	var out *model.Output
	var err error
	if a.mdl.Streaming() {
		prevCompletion := ""
		out, err = a.mdl.GenerateStream(ctx, req, func(ch model.Chunk) error {
			msg.Blocks = ch.Blocks
			completion := turns.TextContent(msg)
			delta := strings.TrimPrefix(completion, prevCompletion)
			prevCompletion = completion
			if delta != "" {
				events.PublishEventToContext(ctx,
					events.NewPartialCompletionEvent(meta, delta, completion))
			}
			// Streamed audio goes to live consumers; the assembled
			// turn gets its audio from the final Synthesize below.
			if a.speech != nil && a.speech.SupportsStreamingInput() {
				if _, pushErr := a.speech.Push(ctx, msg); pushErr != nil {
					a.logger.Warn().Err(pushErr).Msg("speech push failed")
				}
			}
			return nil
		})
		if out != nil {
			msg.Blocks = out.Blocks
			msg.Metadata = out.Metadata
		}
	} else {
		out, err = a.mdl.Generate(ctx, req)
		if out != nil {
			msg.Blocks = out.Blocks
			msg.Metadata = out.Metadata
		}
	}

	if err != nil {
		if IsInterrupt(err) {
			events.PublishEventToContext(ctx,
				events.NewInterruptEvent(meta, turns.TextContent(msg)))
		} else {
			events.PublishEventToContext(ctx, events.NewErrorEvent(meta, err))
		}
		return msg, err
	}

	if a.speech != nil {
		audio, synthErr := a.speech.Synthesize(ctx, msg, nil)
		if synthErr != nil {
			a.logger.Warn().Err(synthErr).Msg("speech synthesis failed")
		} else {
			msg.Blocks = append(msg.Blocks, audio...)
		}
	}

	events.PublishEventToContext(ctx, events.NewFinalEvent(meta, turns.TextContent(msg)))
	return msg, nil
}

// compensateInterruptedToolCalls records a synthetic tool result for
// every tool call in an interrupted reasoning turn, so the log never
// holds a call without its result.
func (a *Agent) compensateInterruptedToolCalls(ctx context.Context, msg *turns.Turn) {
	callBlocks := turns.FindBlocksByKind(msg, turns.BlockKindToolCall)
	if len(callBlocks) == 0 {
		return
	}
	bg := context.WithoutCancel(ctx)
	for _, b := range callBlocks {
		res := turns.NewTurn(turns.RoleSystem, "system",
			turns.NewToolUseBlock(turns.BlockToolID(b), turns.BlockToolName(b),
				"The tool call has been interrupted by the user."))
		if err := a.mem.Add(bg, res); err != nil {
			a.logger.Error().Err(err).
				Str("tool_call_id", turns.BlockToolID(b)).
				Msg("failed to record compensating tool result")
		}
	}
}
