package agent

import (
	"context"
	"encoding/json"

	"github.com/go-go-golems/mangiafuoco/pkg/tools"
	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// generateResponse is the handler behind the finishing tool. It validates
// the model-supplied arguments against the pending result schema itself,
// so a violation becomes an ordinary failed outcome the model can repair
// on the next step instead of a hard error.
func (a *Agent) generateResponse(ctx context.Context, args json.RawMessage) (tools.ResponseStream, error) {
	s := a.getPendingSchema()
	if s == nil {
		a.logger.Warn().Msg("finishing tool called without a pending result schema")
		return tools.NewResponse(finishChunk("Successfully generated response", true, nil)), nil
	}

	var data map[string]any
	if err := json.Unmarshal(args, &data); err != nil {
		return tools.NewResponse(finishChunk(
			"Argument validation error: arguments are not a JSON object: "+err.Error(),
			false, map[string]any{})), nil
	}

	validated, err := s.Validate(data)
	if err != nil {
		return tools.NewResponse(finishChunk(
			"Argument validation error: "+err.Error(),
			false, map[string]any{})), nil
	}

	return tools.NewResponse(finishChunk("Successfully generated response", true, validated)), nil
}

func finishChunk(text string, success bool, structured map[string]any) tools.ResponseChunk {
	return tools.ResponseChunk{
		Content: []turns.Block{turns.NewTextBlock(text)},
		Metadata: map[string]any{
			turns.MetaKeySuccess:          success,
			turns.MetaKeyStructuredOutput: structured,
		},
		Last: true,
	}
}
