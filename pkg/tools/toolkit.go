package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/go-go-golems/mangiafuoco/pkg/model"
)

// Toolkit manages available tools with thread-safe operations and turns
// tool calls into lazy outcome streams. Recoverable invocation problems
// (unknown tool, argument validation failure) are reported inside the
// stream as ordinary tool output, never as returned errors, so the model
// sees and can react to them.
type Toolkit struct {
	mu    sync.RWMutex
	tools map[string]Definition
}

// NewToolkit creates an empty toolkit.
func NewToolkit() *Toolkit {
	return &Toolkit{
		tools: make(map[string]Definition),
	}
}

// Register registers a tool. Registering an existing name replaces the
// previous definition, which makes re-binding the finishing tool to a new
// schema idempotent.
func (tk *Toolkit) Register(def Definition) error {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	if def.Name == "" {
		return errors.New("tool name cannot be empty")
	}
	if def.Handler == nil {
		return errors.Errorf("tool %s has no handler", def.Name)
	}
	tk.tools[def.Name] = def
	return nil
}

// Unregister removes a tool. Removing an absent tool is a no-op.
func (tk *Toolkit) Unregister(name string) {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	delete(tk.tools, name)
}

// Has reports whether a tool with the given name is registered.
func (tk *Toolkit) Has(name string) bool {
	tk.mu.RLock()
	defer tk.mu.RUnlock()
	_, ok := tk.tools[name]
	return ok
}

// Get retrieves a tool by name, returning a copy to prevent external
// modification.
func (tk *Toolkit) Get(name string) (*Definition, error) {
	tk.mu.RLock()
	defer tk.mu.RUnlock()

	def, ok := tk.tools[name]
	if !ok {
		return nil, errors.Errorf("tool not found: %s", name)
	}
	defCopy := def
	return &defCopy, nil
}

// List returns all registered tools sorted by name.
func (tk *Toolkit) List() []Definition {
	tk.mu.RLock()
	defer tk.mu.RUnlock()

	out := make([]Definition, 0, len(tk.tools))
	for _, def := range tk.tools {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Schemas returns the registered tools as model-facing tool schemas.
func (tk *Toolkit) Schemas() []model.ToolSchema {
	defs := tk.List()
	out := make([]model.ToolSchema, 0, len(defs))
	for _, def := range defs {
		out = append(out, model.ToolSchema{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		})
	}
	return out
}

// Invoke executes one tool call and returns its lazy outcome stream.
func (tk *Toolkit) Invoke(ctx context.Context, call ToolCall) (ResponseStream, error) {
	def, err := tk.Get(call.Name)
	if err != nil {
		return NewResponse(ErrorChunk(fmt.Sprintf("Error: tool not found: %s", call.Name))), nil
	}

	if def.ValidateArguments && len(def.Parameters) > 0 {
		if verr := validateArguments(def.Parameters, call.Arguments); verr != nil {
			return NewResponse(ErrorChunk(fmt.Sprintf("Error: argument validation failed: %s", verr))), nil
		}
	}

	stream, err := def.Handler(ctx, call.Arguments)
	if err != nil {
		return nil, errors.Wrapf(err, "invoke tool %s", call.Name)
	}
	return stream, nil
}

func validateArguments(params map[string]any, args json.RawMessage) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	var data any
	if err := json.Unmarshal(args, &data); err != nil {
		return errors.Wrap(err, "arguments are not valid JSON")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(params),
		gojsonschema.NewGoLoader(data),
	)
	if err != nil {
		return errors.Wrap(err, "validate arguments")
	}
	if !result.Valid() {
		msg := ""
		for _, e := range result.Errors() {
			if msg != "" {
				msg += "; "
			}
			msg += e.String()
		}
		return errors.New(msg)
	}
	return nil
}
