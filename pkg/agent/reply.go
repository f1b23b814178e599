package agent

import (
	"context"

	"github.com/pkg/errors"

	"github.com/go-go-golems/mangiafuoco/pkg/model"
	"github.com/go-go-golems/mangiafuoco/pkg/schema"
	"github.com/go-go-golems/mangiafuoco/pkg/tools"
	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// Reply runs one full reasoning-acting episode: the inputs are recorded,
// retrieval augments the working context, and the loop alternates between
// asking the model for the next step and executing any tool calls it
// requested, until a final answer emerges or the iteration budget runs
// out. If resultSchema is non-nil the reply must additionally carry a
// structured payload conforming to it, produced through the finishing
// tool.
func (a *Agent) Reply(ctx context.Context, inputs []*turns.Turn, resultSchema *schema.Schema) (*turns.Turn, error) {
	if len(inputs) > 0 {
		if err := a.mem.Add(ctx, inputs...); err != nil {
			return nil, errors.Wrap(err, "record inputs")
		}
	}

	if a.staticControl() {
		if err := a.retrieveFromLongTermMemory(ctx, inputs); err != nil {
			if IsInterrupt(err) {
				return nil, err
			}
			a.logger.Warn().Err(err).Msg("long-term memory retrieval failed")
		}
	}
	if len(a.knowledge) > 0 {
		if err := a.retrieveFromKnowledge(ctx, inputs); err != nil {
			if IsInterrupt(err) {
				return nil, err
			}
			a.logger.Warn().Err(err).Msg("knowledge retrieval failed")
		}
	}

	toolChoice := model.ToolChoiceAuto
	if resultSchema != nil {
		a.setPendingSchema(resultSchema)
		def := tools.Definition{
			Name: FinishToolName,
			Description: "Generate a structured response conforming to the required schema. " +
				"Call this tool when you are ready to answer.",
			Parameters:        resultSchema.JSONSchema(),
			Handler:           a.generateResponse,
			ValidateArguments: false,
		}
		if err := a.toolkit.Register(def); err != nil {
			return nil, errors.Wrap(err, "register finishing tool")
		}
		defer func() {
			a.toolkit.Unregister(FinishToolName)
			a.setPendingSchema(nil)
		}()
		toolChoice = model.ToolChoiceRequired
	}

	var replyMsg *turns.Turn
	var structuredOutput map[string]any
	pending := resultSchema != nil

	for iter := 0; iter < a.maxIters; iter++ {
		a.logger.Debug().Int("iteration", iter).Msg("reasoning step")

		msgReasoning, err := a.reasoning(ctx, toolChoice)
		if err != nil {
			return nil, err
		}

		callBlocks := turns.FindBlocksByKind(msgReasoning, turns.BlockKindToolCall)

		gotStructured := false
		if len(callBlocks) > 0 {
			outs, err := a.actOnCalls(ctx, callBlocks)
			if err != nil {
				return nil, err
			}
			for _, out := range outs {
				if out != nil {
					structuredOutput = out
					gotStructured = true
				}
			}
		}

		switch {
		case gotStructured:
			pending = false
			if turns.HasBlocksOfKind(msgReasoning, turns.BlockKindText) {
				msgReasoning.Metadata = mergeMetadata(msgReasoning.Metadata, structuredOutput)
				replyMsg = msgReasoning
			} else {
				// Structured result landed without accompanying
				// prose. Ask for a closing text reply.
				a.hints.Add(turns.NewUserTurn("user",
					"<system-hint>Now generate a text response based on the current situation</system-hint>"))
				toolChoice = model.ToolChoiceNone
			}
		case pending && len(callBlocks) == 0:
			a.hints.Add(turns.NewUserTurn("user",
				"<system-hint>Structured output is required, continue the task or call '"+
					FinishToolName+"' to generate the final structured response</system-hint>"))
			toolChoice = model.ToolChoiceRequired
		case len(callBlocks) == 0:
			if structuredOutput != nil {
				msgReasoning.Metadata = mergeMetadata(msgReasoning.Metadata, structuredOutput)
			}
			replyMsg = msgReasoning
		}

		if replyMsg != nil {
			break
		}
	}

	if replyMsg == nil {
		var err error
		replyMsg, err = a.summarizing(ctx)
		if err != nil {
			return nil, err
		}
		if structuredOutput != nil {
			replyMsg.Metadata = mergeMetadata(replyMsg.Metadata, structuredOutput)
		}
	}

	if a.compactor != nil {
		if err := a.compactor.Compact(ctx); err != nil {
			if IsInterrupt(err) {
				return nil, err
			}
			a.logger.Warn().Err(err).Msg("memory compaction failed")
		}
	}

	if a.staticControl() {
		ts, err := a.mem.TurnsExcluding(ctx, turns.MarkCompressed)
		if err != nil {
			return nil, errors.Wrap(err, "read memory for long-term record")
		}
		if err := a.longTerm.Record(ctx, ts); err != nil {
			a.logger.Warn().Err(err).Msg("long-term memory record failed")
		}
	}

	return replyMsg, nil
}

// actOnCalls executes the given tool-call blocks and returns their
// structured outputs, one slot per call, preserving request order.
func (a *Agent) actOnCalls(ctx context.Context, callBlocks []turns.Block) ([]map[string]any, error) {
	calls := make([]tools.ToolCall, 0, len(callBlocks))
	for _, b := range callBlocks {
		call, err := toolCallFromBlock(b)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	if a.parallelToolCalls && len(calls) > 1 {
		return a.actingParallel(ctx, calls)
	}
	outs := make([]map[string]any, len(calls))
	for i, call := range calls {
		out, err := a.acting(ctx, call)
		if err != nil {
			return nil, err
		}
		outs[i] = out
	}
	return outs, nil
}

func mergeMetadata(md map[string]any, structured map[string]any) map[string]any {
	if md == nil {
		md = map[string]any{}
	}
	md[turns.MetaKeyStructuredOutput] = structured
	return md
}
