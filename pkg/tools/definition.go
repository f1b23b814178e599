package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// Handler produces the lazy outcome sequence for one invocation. The
// returned stream must be finite and is consumed exactly once.
type Handler func(ctx context.Context, args json.RawMessage) (ResponseStream, error)

// Definition describes one callable tool.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	// Parameters is a plain JSON-schema object describing the arguments.
	Parameters map[string]any `json:"parameters,omitempty"`
	Handler    Handler        `json:"-"`
	// ValidateArguments asks the toolkit to check arguments against
	// Parameters before invoking the handler. Tools that do their own
	// validation (like the finishing tool) leave this off.
	ValidateArguments bool `json:"-"`
}

// ToolCall represents one request to execute a tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// NewToolFromFunc creates a Definition from a Go function. Supported
// signatures:
//
//	func(Input) (Result, error)
//	func(context.Context, Input) (Result, error)
//	func(Input) Result
//
// The argument schema is generated from the Input struct; the handler
// yields a single final chunk carrying the JSON-serialized result.
func NewToolFromFunc(name, description string, fn interface{}) (*Definition, error) {
	funcType := reflect.TypeOf(fn)
	if funcType == nil || funcType.Kind() != reflect.Func {
		return nil, errors.New("provided value is not a function")
	}
	if funcType.NumOut() == 0 || funcType.NumOut() > 2 {
		return nil, errors.New("function must return (result) or (result, error)")
	}
	if funcType.NumOut() == 2 {
		errorType := reflect.TypeOf((*error)(nil)).Elem()
		if !funcType.Out(1).Implements(errorType) {
			return nil, errors.New("second return value must be an error")
		}
	}

	params, err := generateSchemaFromFunc(funcType)
	if err != nil {
		return nil, errors.Wrap(err, "generate schema")
	}

	invoke := createInvoker(fn, funcType)

	handler := func(ctx context.Context, args json.RawMessage) (ResponseStream, error) {
		result, err := invoke(ctx, args)
		if err != nil {
			return NewResponse(ErrorChunk(fmt.Sprintf("Error: %s", err))), nil
		}
		text := ""
		switch v := result.(type) {
		case string:
			text = v
		default:
			b, merr := json.Marshal(v)
			if merr != nil {
				return NewResponse(ErrorChunk(fmt.Sprintf("Error: %s", merr))), nil
			}
			text = string(b)
		}
		return NewResponse(TextChunk(text, true)), nil
	}

	return &Definition{
		Name:              name,
		Description:       description,
		Parameters:        params,
		Handler:           handler,
		ValidateArguments: true,
	}, nil
}

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()

// generateSchemaFromFunc creates a JSON schema map from the function's
// input struct, expanding definitions inline instead of using $refs.
func generateSchemaFromFunc(funcType reflect.Type) (map[string]any, error) {
	var inputType reflect.Type
	switch funcType.NumIn() {
	case 0:
		return map[string]any{"type": "object"}, nil
	case 1:
		if funcType.In(0) == ctxType {
			return map[string]any{"type": "object"}, nil
		}
		inputType = funcType.In(0)
	case 2:
		if funcType.In(0) != ctxType {
			return nil, errors.New("two-arg tool function must be (context.Context, Input)")
		}
		inputType = funcType.In(1)
	default:
		return nil, errors.New("function must take (Input) or (context.Context, Input)")
	}

	inputInstance := reflect.New(inputType).Elem().Interface()
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(inputInstance)
	if schema.Type == "" && schema.Ref == "" {
		schema.Type = "object"
	}

	b, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Wrap(err, "marshal generated schema")
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Wrap(err, "unmarshal generated schema")
	}
	// The reflected wrapper keys are not part of the parameter schema.
	delete(out, "$schema")
	delete(out, "$id")
	return out, nil
}

// createInvoker pre-compiles a reflective call into the wrapped function.
func createInvoker(fn interface{}, funcType reflect.Type) func(context.Context, []byte) (interface{}, error) {
	funcValue := reflect.ValueOf(fn)

	return func(ctx context.Context, args []byte) (interface{}, error) {
		in := []reflect.Value{}
		switch funcType.NumIn() {
		case 0:
		case 1:
			if funcType.In(0) == ctxType {
				in = append(in, reflect.ValueOf(ctx))
			} else {
				input := reflect.New(funcType.In(0)).Interface()
				if err := unmarshalArgs(args, input); err != nil {
					return nil, err
				}
				in = append(in, reflect.ValueOf(input).Elem())
			}
		case 2:
			input := reflect.New(funcType.In(1)).Interface()
			if err := unmarshalArgs(args, input); err != nil {
				return nil, err
			}
			in = append(in, reflect.ValueOf(ctx), reflect.ValueOf(input).Elem())
		default:
			return nil, errors.New("unsupported tool function signature")
		}

		return extractResults(funcValue.Call(in))
	}
}

func unmarshalArgs(args []byte, input interface{}) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, input); err != nil {
		return errors.Wrap(err, "unmarshal arguments")
	}
	return nil
}

func extractResults(results []reflect.Value) (interface{}, error) {
	switch len(results) {
	case 1:
		return results[0].Interface(), nil
	case 2:
		if err, ok := results[1].Interface().(error); ok && err != nil {
			return nil, err
		}
		return results[0].Interface(), nil
	default:
		return nil, errors.New("unexpected number of return values")
	}
}
