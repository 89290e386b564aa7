package paths

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs expressions with github.com/expr-lang/expr. Template
// keys are unknown at compile time, so programs compile against an open
// environment and are reused across trees.
type exprEvaluator struct {
	engine
}

// NewExprEvaluator returns the default Evaluator, backed by expr-lang/expr.
func NewExprEvaluator(opts ...EngineOption) Evaluator {
	return &exprEvaluator{engine: newEngine("expr", opts)}
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx.withDefaults(), expression, program)
}

func (e *exprEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledRule{evaluator: e, program: program, expression: expression}, nil
}

func (e *exprEvaluator) program(expression string) (*exprvm.Program, error) {
	if err := e.checkExpression(expression); err != nil {
		return nil, err
	}
	if cached, ok := e.cached(expression); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return program, nil
		}
	}

	// Registry functions are declared with exprlang.Function so they take
	// precedence over expr builtins of the same name, such as join.
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.functions() {
		fn := name
		options = append(options, exprlang.Function(fn, func(args ...any) (any, error) {
			return e.call(fn, args...)
		}))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError(e.name, expression, "", err)
	}
	e.store(expression, program)
	return program, nil
}

func (e *exprEvaluator) run(ctx RuleContext, expression string, program *exprvm.Program) (any, error) {
	env := environment(ctx)
	if e.registry != nil {
		env["call"] = func(name string, args ...any) (any, error) {
			return e.call(name, args...)
		}
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapEvaluationError(e.name, expression, ctx.scopeLabel(), err)
	}
	return result, nil
}

type exprCompiledRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, engine{name: "expr"}.missingEvaluator()
	}
	return r.evaluator.run(ctx.withDefaults(), r.expression, r.program)
}
