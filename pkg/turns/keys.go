package turns

// Standard keys used in Block.Payload maps
const (
	PayloadKeyText   = "text"
	PayloadKeyID     = "id"
	PayloadKeyName   = "name"
	PayloadKeyArgs   = "args"
	PayloadKeyResult = "result"
	// PayloadKeyAudio carries raw audio content produced by a multimodal
	// model or a speech synthesizer
	PayloadKeyAudio = "audio"
	// PayloadKeyFormat describes the encoding of an audio payload
	PayloadKeyFormat = "format"
)

// Standard keys used in Turn.Metadata maps
const (
	// MetaKeyInterrupted flags a reply turn produced in response to an
	// external interruption
	MetaKeyInterrupted = "_is_interrupted"
	// MetaKeyStructuredOutput carries the schema-validated payload of a
	// final reply
	MetaKeyStructuredOutput = "structured_output"
	// MetaKeySuccess flags whether a tool outcome completed the request
	MetaKeySuccess = "success"
)

// Role string constants for Turn.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)
