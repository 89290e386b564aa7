package paths

import (
	"time"

	"github.com/goliatone/go-paths/pkg/activity"
)

// Paths holds a built tree together with the configuration used to build and
// query it.
type Paths struct {
	Root     *Node
	BasePath string
	BuildID  string

	cfg config
}

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// RuleContext carries inputs needed when evaluating an expression.
type RuleContext struct {
	Snapshot  any
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
	BasePath  string
	ScopeName string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) scopeLabel() string {
	if ctx.ScopeName != "" {
		return ctx.ScopeName
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

// Option configures Build, BuildMap and the Paths wrapper.
type Option func(*config)

type config struct {
	evaluator     Evaluator
	programCache  ProgramCache
	functions     *FunctionRegistry
	logger        BuildLogger
	evalLogger    EvaluatorLogger
	activityHooks activity.Hooks
	channel       string
	buildID       string
	leafKey       bool
	actorID       string
	tenantID      string
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (c config) buildLogger() BuildLogger {
	if c.logger != nil {
		return c.logger
	}
	return noopLogger{}
}

func (c config) emitter() *activity.Emitter {
	return activity.NewEmitter(c.activityHooks, activity.Config{
		Enabled: true,
		Channel: c.channel,
	})
}

func (c config) evaluatorLogger() EvaluatorLogger {
	if c.evalLogger != nil {
		return c.evalLogger
	}
	return noopLogger{}
}

// WithEvaluator configures the expression engine used by Paths.Evaluate.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = e
	}
}

// WithBuildID overrides the generated build identifier.
func WithBuildID(id string) Option {
	return func(cfg *config) {
		cfg.buildID = id
	}
}

// WithLeafKey adds each leaf's own key as a segment ahead of its value, so
// {"a": 1} builds "/a/1" instead of "/1".
func WithLeafKey() Option {
	return func(cfg *config) {
		cfg.leafKey = true
	}
}
