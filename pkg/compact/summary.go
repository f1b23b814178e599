package compact

import (
	"github.com/go-go-golems/mangiafuoco/pkg/schema"
)

// DefaultInstruction asks the model for a continuation summary of the
// candidate range. It is wrapped into a user turn appended to the end of
// the compaction prompt.
const DefaultInstruction = "<system-hint>You have been working on the task described above " +
	"but have not yet completed it. " +
	"Now write a continuation summary that will allow you to resume " +
	"work efficiently in a future context window where the " +
	"conversation history will be replaced with this summary. " +
	"Your summary should be structured, concise, and actionable." +
	"</system-hint>"

// DefaultTemplate renders the five summary fields into the synthetic
// summary turn presented to the agent.
const DefaultTemplate = `<system-info>Here is a summary of your previous work
# Task Overview
{{ .task_overview }}

# Current State
{{ .current_state }}

# Important Discoveries
{{ .important_discoveries }}

# Next Steps
{{ .next_steps }}

# Context to Preserve
{{ .context_to_preserve }}</system-info>`

// SummarySchemaConfig wraps the schema the summarization model must
// satisfy.
type SummarySchemaConfig struct {
	Schema *schema.Schema
}

// SummarySchema returns the default five-field continuation summary
// schema, each field independently length-bounded.
func SummarySchema() *SummarySchemaConfig {
	return &SummarySchemaConfig{
		Schema: &schema.Schema{
			Name:        "continuation_summary",
			Description: "Structured summary of the work so far, used to resume in a fresh context window",
			Fields: []schema.Field{
				{
					Name:      "task_overview",
					Type:      schema.TypeString,
					MaxLength: 300,
					Required:  true,
					Description: "The user's core request and success criteria. " +
						"Any clarifications or constraints they specified",
				},
				{
					Name:      "current_state",
					Type:      schema.TypeString,
					MaxLength: 300,
					Required:  true,
					Description: "What has been completed so far. " +
						"Files created, modified, or analyzed (with paths if relevant). " +
						"Key outputs or artifacts produced.",
				},
				{
					Name:      "important_discoveries",
					Type:      schema.TypeString,
					MaxLength: 300,
					Required:  true,
					Description: "Technical constraints or requirements uncovered. " +
						"Decisions made and their rationale. " +
						"Errors encountered and how they were resolved. " +
						"What approaches were tried that didn't work (and why)",
				},
				{
					Name:      "next_steps",
					Type:      schema.TypeString,
					MaxLength: 200,
					Required:  true,
					Description: "Specific actions needed to complete the task. " +
						"Any blockers or open questions to resolve. " +
						"Priority order if multiple steps remain",
				},
				{
					Name:      "context_to_preserve",
					Type:      schema.TypeString,
					MaxLength: 300,
					Required:  true,
					Description: "User preferences or style requirements. " +
						"Domain-specific details that aren't obvious. " +
						"Any promises made to the user",
				},
			},
		},
	}
}
