package compact

import (
	"bytes"
	"context"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/go-go-golems/mangiafuoco/pkg/events"
	"github.com/go-go-golems/mangiafuoco/pkg/memory"
	"github.com/go-go-golems/mangiafuoco/pkg/model"
	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// Config controls the memory compaction engine.
type Config struct {
	// TokenCounter measures the candidate range's prompt cost. It must be
	// bound to the same model family as the agent.
	TokenCounter model.TokenCounter
	// TriggerThreshold is the token count above which compaction fires.
	TriggerThreshold int
	// KeepRecent is the number of units to keep uncompressed, where a
	// unit is a standalone turn or a maximal contiguous run of
	// tool-call/tool-result turns. Defaults to 3.
	KeepRecent int
	// Instruction is appended to the candidate range to request the
	// continuation summary. Defaults to DefaultInstruction.
	Instruction string
	// Template renders the five summary fields into the summary turn.
	// Defaults to DefaultTemplate.
	Template string
	// Schema validates the summary the model returns. Defaults to
	// SummarySchema().
	Schema *SummarySchemaConfig
	// Model optionally dedicates a summarization model; the agent's own
	// model is used when nil. Formatter must be set alongside Model.
	Model     model.Model
	Formatter model.Formatter
}

// Engine replaces an older contiguous span of the conversation log with a
// single model-generated summary turn once the span's token cost crosses
// the configured threshold. It never splits a tool-call/tool-result pair,
// and always compacts a prefix of the log (the compaction boundary only
// moves forward).
type Engine struct {
	cfg       Config
	mem       memory.Memory
	sysPrompt string
	mdl       model.Model
	formatter model.Formatter
	logger    zerolog.Logger
	tmpl      *template.Template
}

// New builds a compaction engine bound to the agent's memory, system
// prompt, model, and formatter.
func New(cfg Config, mem memory.Memory, sysPrompt string, mdl model.Model, formatter model.Formatter, logger zerolog.Logger) (*Engine, error) {
	if cfg.TokenCounter == nil {
		return nil, errors.New("compaction requires a token counter")
	}
	if cfg.TriggerThreshold <= 0 {
		return nil, errors.New("compaction requires a positive trigger threshold")
	}
	if cfg.Model != nil && cfg.Formatter == nil {
		return nil, errors.New("a dedicated compaction model requires its formatter")
	}
	if cfg.KeepRecent <= 0 {
		cfg.KeepRecent = 3
	}
	if cfg.Instruction == "" {
		cfg.Instruction = DefaultInstruction
	}
	if cfg.Template == "" {
		cfg.Template = DefaultTemplate
	}
	if cfg.Schema == nil {
		cfg.Schema = SummarySchema()
	}

	tmpl, err := template.New("summary").Funcs(sprig.FuncMap()).Parse(cfg.Template)
	if err != nil {
		return nil, errors.Wrap(err, "parse summary template")
	}

	return &Engine{
		cfg:       cfg,
		mem:       mem,
		sysPrompt: sysPrompt,
		mdl:       mdl,
		formatter: formatter,
		logger:    logger,
		tmpl:      tmpl,
	}, nil
}

// Compact runs one compaction pass. Summarization failures are logged and
// leave every turn unmarked so a later trigger can retry; only external
// cancellation propagates.
func (e *Engine) Compact(ctx context.Context) error {
	ts, err := e.mem.TurnsExcluding(ctx, turns.MarkCompressed)
	if err != nil {
		return errors.Wrap(err, "read uncompressed turns")
	}

	candidates := e.selectCandidates(ts)
	if len(candidates) == 0 {
		return nil
	}

	prompt, err := e.formatter.Format(e.withSystem(candidates))
	if err != nil {
		return errors.Wrap(err, "format candidate range")
	}
	nTokens, err := e.cfg.TokenCounter.Count(prompt)
	if err != nil {
		return errors.Wrap(err, "count candidate tokens")
	}
	if nTokens <= e.cfg.TriggerThreshold {
		return nil
	}

	e.logger.Info().
		Int("tokens", nTokens).
		Int("threshold", e.cfg.TriggerThreshold).
		Int("candidate_turns", len(candidates)).
		Msg("memory compaction triggered")

	summary, err := e.summarize(ctx, candidates)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		// State stays consistent; a later trigger retries.
		e.logger.Warn().Err(err).Msg("failed to obtain compaction summary")
		return nil
	}

	if err := e.mem.SetSummary(ctx, summary); err != nil {
		return errors.Wrap(err, "store compaction summary")
	}
	ids := make([]string, 0, len(candidates))
	for _, t := range candidates {
		ids = append(ids, t.ID)
	}
	if err := e.mem.SetMark(ctx, ids, turns.MarkCompressed); err != nil {
		return errors.Wrap(err, "mark compacted turns")
	}

	e.logger.Info().Int("compacted_turns", len(candidates)).Msg("finished compacting memory")
	events.PublishEventToContext(ctx, events.NewCompactionDoneEvent(
		events.EventMetadata{ID: uuid.New()}, len(candidates), nTokens,
	))
	return nil
}

// selectCandidates walks the uncompressed log from the most recent turn
// backward, retaining KeepRecent units. A position is a valid cut
// boundary only when no tool-result block is still waiting for its
// matching tool-call block, so pairs are always compacted atomically.
func (e *Engine) selectCandidates(ts []*turns.Turn) []*turns.Turn {
	pending := map[string]bool{}
	nKeep := 0
	for i := len(ts) - 1; i >= 0; i-- {
		for _, b := range turns.FindBlocksByKind(ts[i], turns.BlockKindToolUse) {
			if id := turns.BlockToolID(b); id != "" {
				pending[id] = true
			}
		}
		for _, b := range turns.FindBlocksByKind(ts[i], turns.BlockKindToolCall) {
			delete(pending, turns.BlockToolID(b))
		}
		if len(pending) == 0 {
			nKeep++
		}
		if nKeep >= e.cfg.KeepRecent {
			return ts[:i]
		}
	}
	return nil
}

func (e *Engine) summarize(ctx context.Context, candidates []*turns.Turn) (string, error) {
	mdl := e.cfg.Model
	formatter := e.cfg.Formatter
	if mdl == nil {
		mdl = e.mdl
		formatter = e.formatter
	}

	promptTurns := e.withSystem(candidates)
	promptTurns = append(promptTurns, turns.NewUserTurn("user", e.cfg.Instruction))
	prompt, err := formatter.Format(promptTurns)
	if err != nil {
		return "", errors.Wrap(err, "format compaction prompt")
	}

	req := model.Request{Prompt: prompt, Schema: e.cfg.Schema.Schema}

	var md map[string]any
	if mdl.Streaming() {
		var last model.Chunk
		out, err := mdl.GenerateStream(ctx, req, func(c model.Chunk) error {
			last = c
			return nil
		})
		if err != nil {
			return "", err
		}
		md = out.Metadata
		if md == nil {
			md = last.Metadata
		}
	} else {
		out, err := mdl.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		md = out.Metadata
	}

	if len(md) == 0 {
		return "", errors.New("model returned no structured summary metadata")
	}
	validated, err := e.cfg.Schema.Schema.Validate(md)
	if err != nil {
		return "", errors.Wrap(err, "summary validation")
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, validated); err != nil {
		return "", errors.Wrap(err, "render summary template")
	}
	return buf.String(), nil
}

func (e *Engine) withSystem(ts []*turns.Turn) []*turns.Turn {
	out := make([]*turns.Turn, 0, len(ts)+1)
	out = append(out, turns.NewSystemTurn(e.sysPrompt))
	out = append(out, ts...)
	return out
}
