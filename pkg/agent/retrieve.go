package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-go-golems/mangiafuoco/pkg/memory"
	"github.com/go-go-golems/mangiafuoco/pkg/model"
	"github.com/go-go-golems/mangiafuoco/pkg/schema"
	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// retrieveFromLongTermMemory pulls relevant context from the long-term
// memory collaborator and records it as an ordinary turn so the next
// reasoning prompt sees it.
func (a *Agent) retrieveFromLongTermMemory(ctx context.Context, inputs []*turns.Turn) error {
	info, err := a.longTerm.Retrieve(ctx, inputs)
	if err != nil {
		return errors.Wrap(err, "retrieve from long-term memory")
	}
	if info == "" {
		return nil
	}
	t := turns.NewUserTurn(a.name,
		"<long_term_memory>The content between <long_term_memory></long_term_memory> "+
			"tags is retrieved from your long-term memory:\n"+info+"\n</long_term_memory>")
	return a.mem.Add(ctx, t)
}

// retrieveFromKnowledge queries every attached knowledge base with the
// (optionally rewritten) user query and records the merged documents as a
// turn, ordered by relevance.
func (a *Agent) retrieveFromKnowledge(ctx context.Context, inputs []*turns.Turn) error {
	query := inputsText(inputs)
	if query == "" {
		return nil
	}
	if a.rewriteQuery {
		rewritten, err := a.rewriteUserQuery(ctx, query)
		if err != nil {
			if IsInterrupt(err) {
				return err
			}
			a.logger.Warn().Err(err).Msg("query rewrite failed, using raw query")
		} else if rewritten != "" {
			query = rewritten
		}
	}

	var docs []memory.Document
	for _, kb := range a.knowledge {
		ds, err := kb.Retrieve(ctx, query)
		if err != nil {
			if IsInterrupt(err) {
				return err
			}
			a.logger.Warn().Err(err).Msg("knowledge base retrieval failed")
			continue
		}
		docs = append(docs, ds...)
	}
	if len(docs) == 0 {
		return nil
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })

	var sb strings.Builder
	sb.WriteString("<retrieved_knowledge>The content between <retrieved_knowledge>" +
		"</retrieved_knowledge> tags is retrieved from the knowledge base:\n")
	for i, d := range docs {
		fmt.Fprintf(&sb, "- Document %d (score %.3f):\n%s\n", i+1, d.Score, d.Content)
	}
	sb.WriteString("</retrieved_knowledge>")

	return a.mem.Add(ctx, turns.NewUserTurn(a.name, sb.String()))
}

var rewriteSchema = &schema.Schema{
	Name:        "rewritten_query",
	Description: "A retrieval query rewritten from the user's message",
	Fields: []schema.Field{
		{
			Name:        "rewritten_query",
			Type:        schema.TypeString,
			Description: "The query rewritten for knowledge retrieval",
			Required:    true,
		},
	},
}

// rewriteUserQuery asks the model to turn the raw user message into a
// better retrieval query. Failures fall back to the raw query at the
// caller.
func (a *Agent) rewriteUserQuery(ctx context.Context, query string) (string, error) {
	prompt, err := a.formatter.Format([]*turns.Turn{
		turns.NewSystemTurn("Rewrite the user's message into a concise query " +
			"suited for semantic retrieval from a knowledge base."),
		turns.NewUserTurn("user", query),
	})
	if err != nil {
		return "", errors.Wrap(err, "format rewrite prompt")
	}
	out, err := a.mdl.Generate(ctx, model.Request{
		Prompt: prompt,
		Schema: rewriteSchema,
	})
	if err != nil {
		return "", errors.Wrap(err, "rewrite query")
	}
	if out == nil || out.Metadata == nil {
		return "", errors.New("rewrite produced no structured output")
	}
	rewritten, _ := out.Metadata["rewritten_query"].(string)
	if rewritten == "" {
		return "", errors.New("rewrite produced an empty query")
	}
	return rewritten, nil
}

func inputsText(inputs []*turns.Turn) string {
	parts := make([]string, 0, len(inputs))
	for _, t := range inputs {
		if t == nil {
			continue
		}
		if text := turns.TextContent(t); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
