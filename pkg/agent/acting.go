package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/mangiafuoco/pkg/events"
	"github.com/go-go-golems/mangiafuoco/pkg/tools"
	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// acting executes one tool call and folds its chunked outcome into a
// single result turn. The result turn is recorded exactly once, whatever
// happens: a placeholder is created up front and the deferred append
// commits whatever content has accumulated by the time the call returns,
// including on cancellation. When the finishing tool reports success, the
// validated structured payload is returned.
func (a *Agent) acting(ctx context.Context, call tools.ToolCall) (structured map[string]any, err error) {
	resMsg := turns.NewTurn(turns.RoleSystem, "system",
		turns.NewToolUseBlock(call.ID, call.Name, []any{}))
	defer func() {
		if addErr := a.mem.Add(context.WithoutCancel(ctx), resMsg); addErr != nil {
			a.logger.Error().Err(addErr).
				Str("tool_call_id", call.ID).
				Msg("failed to record tool result turn")
		}
	}()

	meta := events.EventMetadata{
		ID:        uuid.New(),
		AgentName: a.name,
		TurnID:    resMsg.ID,
	}
	events.PublishEventToContext(ctx, events.NewToolCallExecuteEvent(meta, events.ToolCall{
		ID:    call.ID,
		Name:  call.Name,
		Input: string(call.Arguments),
	}))

	stream, invokeErr := a.toolkit.Invoke(ctx, call)
	if invokeErr != nil {
		if IsInterrupt(invokeErr) {
			resMsg.Blocks[0].Payload[turns.PayloadKeyResult] =
				"The tool call has been interrupted by the user."
			return nil, errors.WithStack(ErrInterrupted)
		}
		// Tool failures are ordinary results: the model sees the error
		// text and can react to it.
		resMsg.Blocks[0].Payload[turns.PayloadKeyResult] =
			fmt.Sprintf("Error: %s", invokeErr)
		return nil, nil
	}

	for {
		select {
		case <-ctx.Done():
			resMsg.Blocks[0].Payload[turns.PayloadKeyResult] =
				"The tool call has been interrupted by the user."
			return nil, ctx.Err()
		case chunk, ok := <-stream:
			if !ok {
				return structured, nil
			}
			resMsg.Blocks[0].Payload[turns.PayloadKeyResult] = chunk.Content
			events.PublishEventToContext(ctx,
				events.NewToolCallExecutionResultEvent(meta, events.ToolResult{
					ID:     call.ID,
					Name:   call.Name,
					Result: blocksText(chunk.Content),
					Last:   chunk.Last,
				}))
			if chunk.Interrupted {
				return nil, errors.WithStack(ErrInterrupted)
			}
			// A successful finishing call ends the invocation; any
			// trailing chunks never overwrite the accepted outcome.
			if call.Name == FinishToolName && chunk.Metadata != nil {
				if success, _ := chunk.Metadata[turns.MetaKeySuccess].(bool); success {
					structured, _ = chunk.Metadata[turns.MetaKeyStructuredOutput].(map[string]any)
					if structured == nil {
						structured = map[string]any{}
					}
					return structured, nil
				}
			}
		}
	}
}

// actingParallel fans the calls out concurrently. Each call still records
// its own result turn; the first error cancels the siblings.
func (a *Agent) actingParallel(ctx context.Context, calls []tools.ToolCall) ([]map[string]any, error) {
	outs := make([]map[string]any, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			out, err := a.acting(gctx, call)
			if err != nil {
				return err
			}
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outs, nil
}

// toolCallFromBlock extracts the tool call request from a tool-call
// block, normalizing the argument payload to raw JSON.
func toolCallFromBlock(b turns.Block) (tools.ToolCall, error) {
	call := tools.ToolCall{
		ID:   turns.BlockToolID(b),
		Name: turns.BlockToolName(b),
	}
	if call.Name == "" {
		return call, errors.New("tool call block without tool name")
	}
	switch args := b.Payload[turns.PayloadKeyArgs].(type) {
	case nil:
		call.Arguments = json.RawMessage("{}")
	case json.RawMessage:
		call.Arguments = args
	case []byte:
		call.Arguments = json.RawMessage(args)
	case string:
		call.Arguments = json.RawMessage(args)
	default:
		raw, err := json.Marshal(args)
		if err != nil {
			return call, errors.Wrapf(err, "marshal arguments for tool %s", call.Name)
		}
		call.Arguments = raw
	}
	return call, nil
}

func blocksText(bs []turns.Block) string {
	t := &turns.Turn{Blocks: bs}
	return turns.TextContent(t)
}
