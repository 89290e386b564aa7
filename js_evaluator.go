//go:build js_eval

package paths

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	engine
}

// NewJSEvaluator returns an Evaluator backed by goja. Leaves are exposed as
// getter-only properties, so assignments to them are ignored.
func NewJSEvaluator(opts ...EngineOption) Evaluator {
	return &jsEvaluator{engine: newEngine("js", opts)}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if err := e.checkExpression(expression); err != nil {
		return nil, err
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, ctx.scopeLabel(), err)
	}
	return e.run(ctx.withDefaults(), expression, program)
}

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if err := e.checkExpression(expression); err != nil {
		return nil, err
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, "", err)
	}
	return &jsCompiledRule{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *jsEvaluator) loadOrCompile(expression string) (*goja.Program, error) {
	if cached, ok := e.cached(expression); ok {
		if program, ok := cached.(*goja.Program); ok {
			return program, nil
		}
	}
	program, err := goja.Compile("", wrapExpression(expression), false)
	if err != nil {
		return nil, err
	}
	e.store(expression, program)
	return program, nil
}

func (e *jsEvaluator) run(ctx RuleContext, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	if err := e.injectContext(vm, ctx); err != nil {
		return nil, wrapEvaluationError("js", expression, ctx.scopeLabel(), err)
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, ctx.scopeLabel(), err)
	}
	return value.Export(), nil
}

func (e *jsEvaluator) injectContext(vm *goja.Runtime, ctx RuleContext) error {
	var tree *goja.Object
	var keys []string
	var err error
	if root, ok := ctx.Snapshot.(*Node); ok && root.IsContainer() {
		tree, err = nodeObject(vm, root)
		keys = root.Keys()
	} else {
		snapshot := snapshotAsMap(ctx.Snapshot)
		tree, err = mapObject(vm, snapshot)
		keys = sortedKeys(snapshot)
	}
	if err != nil {
		return err
	}

	bindings := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"base":     ctx.BasePath,
		"paths":    tree,
	}
	for name, value := range bindings {
		if err := vm.Set(name, value); err != nil {
			return err
		}
	}
	for _, key := range keys {
		if _, ok := reserved[key]; ok {
			continue
		}
		if err := vm.Set(key, tree.Get(key)); err != nil {
			return err
		}
	}
	if e.registry != nil {
		if err := vm.Set("call", func(name string, arguments ...any) (any, error) {
			return e.call(name, arguments...)
		}); err != nil {
			return err
		}
		for _, name := range e.functions() {
			fn := name
			if err := vm.Set(fn, func(arguments ...any) (any, error) {
				return e.call(fn, arguments...)
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// nodeObject mirrors a built tree as nested objects whose leaves are
// non-configurable accessors without a setter.
func nodeObject(vm *goja.Runtime, n *Node) (*goja.Object, error) {
	obj := vm.NewObject()
	for _, key := range n.Keys() {
		child, _ := n.Get(key)
		if child.IsContainer() {
			nested, err := nodeObject(vm, child)
			if err != nil {
				return nil, err
			}
			if err := obj.Set(key, nested); err != nil {
				return nil, err
			}
			continue
		}
		if err := defineGetter(vm, obj, key, child.Value()); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func mapObject(vm *goja.Runtime, m map[string]any) (*goja.Object, error) {
	obj := vm.NewObject()
	for _, key := range sortedKeys(m) {
		if nested, ok := m[key].(map[string]any); ok && nested != nil {
			child, err := mapObject(vm, nested)
			if err != nil {
				return nil, err
			}
			if err := obj.Set(key, child); err != nil {
				return nil, err
			}
			continue
		}
		if err := defineGetter(vm, obj, key, m[key]); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func defineGetter(vm *goja.Runtime, obj *goja.Object, key string, value any) error {
	jsValue := vm.ToValue(value)
	getter := vm.ToValue(func(goja.FunctionCall) goja.Value {
		return jsValue
	})
	return obj.DefineAccessorProperty(key, getter, nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
}

func wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, engine{name: "js"}.missingEvaluator()
	}
	return r.evaluator.run(ctx.withDefaults(), r.expression, r.program)
}

func jsEvaluatorAvailable() bool {
	return true
}
