package agent

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/mangiafuoco/pkg/compact"
	"github.com/go-go-golems/mangiafuoco/pkg/memory"
	"github.com/go-go-golems/mangiafuoco/pkg/model"
	"github.com/go-go-golems/mangiafuoco/pkg/schema"
	"github.com/go-go-golems/mangiafuoco/pkg/tools"
	"github.com/go-go-golems/mangiafuoco/pkg/turns"
)

// FinishToolName is the tool the model calls to emit a machine-validated
// structured result. It is only registered while a result schema is
// pending.
const FinishToolName = "generate_response"

// LongTermMemoryMode selects who drives the long-term memory collaborator.
type LongTermMemoryMode string

const (
	// LongTermAgentControl registers retrieve/record tools so the model
	// manages long-term memory itself.
	LongTermAgentControl LongTermMemoryMode = "agent_control"
	// LongTermStaticControl retrieves at the start and records at the end
	// of every reply.
	LongTermStaticControl LongTermMemoryMode = "static_control"
	// LongTermBoth enables both modes.
	LongTermBoth LongTermMemoryMode = "both"
)

// Agent drives the reasoning-acting loop: it asks the model for the next
// step, executes requested tool calls (possibly concurrently), recognizes
// an acceptable final answer, reacts to external cancellation, and keeps
// the conversation inside a bounded context window through compaction.
type Agent struct {
	name      string
	sysPrompt string

	mdl       model.Model
	formatter model.Formatter
	toolkit   *tools.Toolkit
	mem       memory.Memory
	hints     *memory.HintMemory

	longTerm memory.LongTermMemory
	ltmMode  LongTermMemoryMode

	knowledge    []memory.KnowledgeBase
	rewriteQuery bool

	plan      PlanTracker
	speech    model.SpeechSynthesizer
	compactor *compact.Engine

	parallelToolCalls bool
	maxIters          int

	logger zerolog.Logger

	mu            sync.Mutex
	pendingSchema *schema.Schema
}

type Option func(*Agent)

// New builds an agent. The model and formatter are required; everything
// else has working defaults (empty toolkit, in-process memory, ten loop
// iterations).
func New(name, sysPrompt string, mdl model.Model, formatter model.Formatter, opts ...Option) (*Agent, error) {
	if mdl == nil {
		return nil, errors.New("agent requires a model")
	}
	if formatter == nil {
		return nil, errors.New("agent requires a formatter")
	}

	a := &Agent{
		name:         name,
		sysPrompt:    sysPrompt,
		mdl:          mdl,
		formatter:    formatter,
		toolkit:      tools.NewToolkit(),
		mem:          memory.NewInMemory(),
		hints:        memory.NewHintMemory(),
		ltmMode:      LongTermBoth,
		rewriteQuery: true,
		maxIters:     10,
		logger:       log.Logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	if a.agentControl() {
		if err := a.registerLongTermMemoryTools(); err != nil {
			return nil, err
		}
	}
	if a.plan != nil {
		for _, def := range a.plan.Tools() {
			if err := a.toolkit.Register(def); err != nil {
				return nil, errors.Wrapf(err, "register plan tool %s", def.Name)
			}
		}
	}

	return a, nil
}

func WithToolkit(tk *tools.Toolkit) Option {
	return func(a *Agent) {
		if tk != nil {
			a.toolkit = tk
		}
	}
}

func WithMemory(m memory.Memory) Option {
	return func(a *Agent) {
		if m != nil {
			a.mem = m
		}
	}
}

func WithLongTermMemory(ltm memory.LongTermMemory, mode LongTermMemoryMode) Option {
	return func(a *Agent) {
		a.longTerm = ltm
		if mode != "" {
			a.ltmMode = mode
		}
	}
}

func WithKnowledge(kbs ...memory.KnowledgeBase) Option {
	return func(a *Agent) { a.knowledge = append(a.knowledge, kbs...) }
}

// WithQueryRewrite controls whether the user query is rewritten by the
// model before knowledge retrieval. Enabled by default.
func WithQueryRewrite(enabled bool) Option {
	return func(a *Agent) { a.rewriteQuery = enabled }
}

func WithPlanTracker(p PlanTracker) Option {
	return func(a *Agent) { a.plan = p }
}

func WithSpeechSynthesizer(s model.SpeechSynthesizer) Option {
	return func(a *Agent) { a.speech = s }
}

func WithCompactor(c *compact.Engine) Option {
	return func(a *Agent) { a.compactor = c }
}

// WithParallelToolCalls makes all tool requests from one reasoning step
// run concurrently instead of in request order.
func WithParallelToolCalls(enabled bool) Option {
	return func(a *Agent) { a.parallelToolCalls = enabled }
}

func WithMaxIters(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIters = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Toolkit returns the agent's toolkit for tool registration.
func (a *Agent) Toolkit() *tools.Toolkit { return a.toolkit }

// Memory returns the agent's conversation log.
func (a *Agent) Memory() memory.Memory { return a.mem }

// Observe records incoming turns without generating a reply.
func (a *Agent) Observe(ctx context.Context, ts ...*turns.Turn) error {
	return a.mem.Add(ctx, ts...)
}

// HandleInterrupt is the post-processing step for a reply that was cut
// off externally. It records and returns a reply acknowledging the
// interruption.
func (a *Agent) HandleInterrupt(ctx context.Context) (*turns.Turn, error) {
	reply := turns.NewTurn(turns.RoleAssistant, a.name,
		turns.NewTextBlock("I noticed that you have interrupted me. What can I do for you?"))
	reply.Metadata = map[string]any{turns.MetaKeyInterrupted: true}

	if err := a.mem.Add(ctx, reply); err != nil {
		return nil, errors.Wrap(err, "record interrupt reply")
	}
	return reply, nil
}

func (a *Agent) staticControl() bool {
	return a.longTerm != nil &&
		(a.ltmMode == LongTermStaticControl || a.ltmMode == LongTermBoth)
}

func (a *Agent) agentControl() bool {
	return a.longTerm != nil &&
		(a.ltmMode == LongTermAgentControl || a.ltmMode == LongTermBoth)
}

func (a *Agent) setPendingSchema(s *schema.Schema) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pendingSchema = s
}

func (a *Agent) getPendingSchema() *schema.Schema {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pendingSchema
}

type recordToMemoryInput struct {
	Thinking string   `json:"thinking" jsonschema_description:"Why this information is worth remembering"`
	Content  []string `json:"content" jsonschema_description:"The pieces of information to record"`
}

type retrieveFromMemoryInput struct {
	Keywords []string `json:"keywords" jsonschema_description:"Keywords to search long-term memory for"`
}

// registerLongTermMemoryTools exposes the long-term memory collaborator
// as agent-controlled tools.
func (a *Agent) registerLongTermMemoryTools() error {
	record, err := tools.NewToolFromFunc(
		"record_to_memory",
		"Record important information to long-term memory for future reference",
		func(ctx context.Context, in recordToMemoryInput) (string, error) {
			ts := make([]*turns.Turn, 0, len(in.Content))
			for _, c := range in.Content {
				ts = append(ts, turns.NewUserTurn(a.name, c))
			}
			if err := a.longTerm.Record(ctx, ts); err != nil {
				return "", err
			}
			return "Recorded to long-term memory", nil
		},
	)
	if err != nil {
		return errors.Wrap(err, "build record_to_memory tool")
	}
	retrieve, err := tools.NewToolFromFunc(
		"retrieve_from_memory",
		"Retrieve information relevant to the given keywords from long-term memory",
		func(ctx context.Context, in retrieveFromMemoryInput) (string, error) {
			query := turns.NewUserTurn(a.name, strings.Join(in.Keywords, "\n"))
			info, err := a.longTerm.Retrieve(ctx, []*turns.Turn{query})
			if err != nil {
				return "", err
			}
			if info == "" {
				return "No relevant records found", nil
			}
			return info, nil
		},
	)
	if err != nil {
		return errors.Wrap(err, "build retrieve_from_memory tool")
	}

	if err := a.toolkit.Register(*record); err != nil {
		return err
	}
	return a.toolkit.Register(*retrieve)
}
