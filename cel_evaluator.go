package paths

import (
	"reflect"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEvaluator struct {
	engine
}

// NewCELEvaluator returns an Evaluator backed by cel-go. Registered functions
// take a single list argument in CEL, for example join([user.id, "posts"]).
func NewCELEvaluator(opts ...EngineOption) Evaluator {
	return &celEvaluator{engine: newEngine("cel", opts)}
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if err := e.checkExpression(expression); err != nil {
		return nil, err
	}
	ctx = ctx.withDefaults()
	activation := environment(ctx)
	program, err := e.loadOrCompile(expression, activation)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.scopeLabel(), err)
	}
	out, _, err := program.program.Eval(activation)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.scopeLabel(), err)
	}
	return out.Value(), nil
}

// Compile defers program construction to evaluation time, since the CEL
// environment declares one variable per template key.
func (e *celEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if err := e.checkExpression(expression); err != nil {
		return nil, err
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string, activation map[string]any) (*celProgram, error) {
	variables := make([]string, 0, len(activation))
	for key := range activation {
		variables = append(variables, key)
	}
	sort.Strings(variables)
	key := strings.Join(variables, ",") + "|" + expression
	if cached, ok := e.cached(key); ok {
		if program, ok := cached.(*celProgram); ok {
			return program, nil
		}
	}

	env, err := e.buildEnv(variables)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	e.store(key, bundle)
	return bundle, nil
}

func (e *celEvaluator) buildEnv(variables []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("base", celgo.StringType),
	}
	for _, name := range variables {
		if name == "now" || name == "base" {
			continue
		}
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.registry != nil {
		listOfDyn := celgo.ListType(celgo.DynType)
		for _, name := range e.functions() {
			opts = append(opts, celgo.Function(name,
				celgo.Overload(name+"_list", []*celgo.Type{listOfDyn}, celgo.DynType,
					celgo.UnaryBinding(e.listBinding(name)),
				),
			))
		}
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list", []*celgo.Type{celgo.StringType, listOfDyn}, celgo.DynType,
				celgo.BinaryBinding(func(name, args ref.Val) ref.Val {
					fn, ok := name.Value().(string)
					if !ok {
						return types.NewErr("paths: call name must be string")
					}
					return e.listBinding(fn)(args)
				}),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

var anySliceType = reflect.TypeOf([]any{})

func (e *celEvaluator) listBinding(name string) func(ref.Val) ref.Val {
	return func(value ref.Val) ref.Val {
		native, err := value.ConvertToNative(anySliceType)
		if err != nil {
			return types.NewErr("paths: %s expects a list: %v", name, err)
		}
		args, _ := native.([]any)
		result, err := e.call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, engine{name: "cel"}.missingEvaluator()
	}
	return r.evaluator.Evaluate(ctx, r.expression)
}
