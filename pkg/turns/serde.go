package turns

import (
	"gopkg.in/yaml.v3"
)

// NormalizeTurn applies serde defaults (best-effort) without mutating order.
func NormalizeTurn(t *Turn) {
	if t == nil {
		return
	}
	for i := range t.Blocks {
		b := &t.Blocks[i]
		if b.Payload == nil {
			b.Payload = map[string]any{}
		}
	}
}

// ToYAML marshals a Turn to YAML using snake_case tags and string enums for
// BlockKind and Mark.
func ToYAML(t *Turn) ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	snapshot := *t
	NormalizeTurn(&snapshot)
	return yaml.Marshal(snapshot)
}

// FromYAML unmarshals a Turn from YAML.
func FromYAML(b []byte) (*Turn, error) {
	var t Turn
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	NormalizeTurn(&t)
	return &t, nil
}
