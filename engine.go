package paths

import (
	"fmt"
	"strconv"
	"sync/atomic"
)

// EngineOption configures the evaluators returned by NewExprEvaluator,
// NewCELEvaluator and NewJSEvaluator.
type EngineOption func(*engine)

// EngineProgramCache stores compiled programs in cache. Compiled programs
// close over the evaluator's functions, so keys are scoped to the evaluator
// instance; evaluators sharing a cache never see each other's programs.
func EngineProgramCache(cache ProgramCache) EngineOption {
	return func(e *engine) {
		e.cache = cache
	}
}

// EngineFunctions exposes a copy of registry to expressions, both by name and
// through call(name, args...).
func EngineFunctions(registry *FunctionRegistry) EngineOption {
	return func(e *engine) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

var engineSeq atomic.Uint64

// engine holds what every evaluator shares.
type engine struct {
	name     string
	prefix   string
	cache    ProgramCache
	registry *FunctionRegistry
}

func newEngine(name string, opts []EngineOption) engine {
	e := engine{
		name:   name,
		prefix: name + "#" + strconv.FormatUint(engineSeq.Add(1), 10) + ":",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&e)
		}
	}
	return e
}

// Engine names the evaluator in logs and errors.
func (e engine) Engine() string {
	return e.name
}

func (e engine) cached(key string) (any, bool) {
	if e.cache == nil {
		return nil, false
	}
	return e.cache.Get(e.prefix + key)
}

func (e engine) store(key string, program any) {
	if e.cache != nil {
		e.cache.Set(e.prefix+key, program)
	}
}

func (e engine) functions() []string {
	return e.registry.Names()
}

func (e engine) call(name string, args ...any) (any, error) {
	return e.registry.Call(name, args...)
}

func (e engine) checkExpression(expression string) error {
	if expression == "" {
		return wrapEvaluatorError(e.name, fmt.Errorf("expression must not be empty"))
	}
	return nil
}

func (e engine) missingEvaluator() error {
	return wrapEvaluatorError(e.name, fmt.Errorf("compiled rule missing evaluator"))
}
