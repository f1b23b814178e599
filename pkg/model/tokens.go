package model

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tiktoken-go/tokenizer"
)

// TiktokenCounter counts tokens with a tiktoken codec. Use ForModel to
// bind it to the same model family as the agent.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

// NewTiktokenCounter returns a counter for the given encoding.
func NewTiktokenCounter(encoding tokenizer.Encoding) (*TiktokenCounter, error) {
	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "get tokenizer for encoding %s", encoding)
	}
	return &TiktokenCounter{codec: codec}, nil
}

// ForModel returns a counter bound to the named model's encoding.
func ForModel(model string) (*TiktokenCounter, error) {
	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if err != nil {
		return nil, errors.Wrapf(err, "get tokenizer for model %s", model)
	}
	return &TiktokenCounter{codec: codec}, nil
}

// Count measures the prompt's token cost. Non-string prompts are
// serialized to JSON first, which approximates the provider-side cost of
// a structured transcript.
func (c *TiktokenCounter) Count(prompt any) (int, error) {
	text, ok := prompt.(string)
	if !ok {
		b, err := json.Marshal(prompt)
		if err != nil {
			return 0, errors.Wrap(err, "marshal prompt for token counting")
		}
		text = string(b)
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return 0, errors.Wrap(err, "encode prompt")
	}
	return len(ids), nil
}

var _ TokenCounter = (*TiktokenCounter)(nil)
