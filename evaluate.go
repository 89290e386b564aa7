package paths

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-paths/pkg/activity"
)

// reserved names are bound by every engine and shadow template keys of the
// same name; those keys stay reachable under "paths".
var reserved = map[string]struct{}{
	"now":      {},
	"args":     {},
	"metadata": {},
	"base":     {},
	"paths":    {},
	"call":     {},
}

// Evaluate runs expr against the built tree. Top-level template keys are
// bound as variables, so "user.profile.name" yields that leaf's path.
func (p *Paths) Evaluate(expr string) (Response[any], error) {
	return p.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith runs expr using ctx, falling back to the built tree when
// ctx.Snapshot is nil.
func (p *Paths) EvaluateWith(ctx RuleContext, expr string) (Response[any], error) {
	if p == nil {
		return Response[any]{}, ErrNoEvaluator
	}
	if expr == "" {
		return Response[any]{}, fmt.Errorf("paths: expression must not be empty")
	}
	evaluator, err := p.resolveEvaluator()
	if err != nil {
		return Response[any]{}, err
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = p.Root
	}
	if ctx.BasePath == "" {
		ctx.BasePath = p.BasePath
	}
	if ctx.ScopeName == "" {
		ctx.ScopeName = p.BuildID
	}
	ctx = ctx.withDefaults()

	engineName := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	evalErr = wrapEvaluationError(engineName, expr, ctx.scopeLabel(), evalErr)
	p.cfg.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engineName,
		Expr:     expr,
		Scope:    ctx.scopeLabel(),
		Duration: time.Since(start),
		Err:      evalErr,
	})
	if evalErr != nil {
		return Response[any]{}, evalErr
	}

	if emitter := p.cfg.emitter(); emitter.Enabled() {
		event := activity.BuildPathsEvaluatedEvent(activity.EvaluateInput{
			ActorID:  p.cfg.actorID,
			TenantID: p.cfg.tenantID,
			BuildID:  p.BuildID,
			BasePath: p.BasePath,
			Engine:   engineName,
			Expr:     expr,
			Result:   value,
		})
		if err := emitter.Emit(context.Background(), event); err != nil {
			return Response[any]{Value: value}, fmt.Errorf("paths: activity hooks: %w", err)
		}
	}
	return Response[any]{Value: value}, nil
}

// EvaluateString runs expr and requires a string result.
func (p *Paths) EvaluateString(expr string) (string, error) {
	resp, err := p.Evaluate(expr)
	if err != nil {
		return "", err
	}
	text, ok := resp.Value.(string)
	if !ok {
		return "", fmt.Errorf("paths: expression %q returned %T, want string", expr, resp.Value)
	}
	return text, nil
}

func (p *Paths) resolveEvaluator() (Evaluator, error) {
	if p.cfg.evaluator != nil {
		return p.cfg.evaluator, nil
	}
	defaultEvaluator := NewExprEvaluator(
		EngineFunctions(withBuiltins(p.cfg.functions)),
		EngineProgramCache(p.cfg.programCache),
	)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	p.cfg.evaluator = defaultEvaluator
	return defaultEvaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(interface{ Engine() string }); ok {
		return named.Engine()
	}
	return "custom"
}

// environment binds the variables shared by every engine.
func environment(ctx RuleContext) map[string]any {
	snapshot := snapshotAsMap(ctx.Snapshot)
	env := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"base":     ctx.BasePath,
		"paths":    snapshot,
	}
	for key, value := range snapshot {
		if _, ok := reserved[key]; ok {
			continue
		}
		env[key] = value
	}
	return env
}

func snapshotAsMap(value any) map[string]any {
	switch typed := value.(type) {
	case map[string]any:
		if typed != nil {
			return typed
		}
	case *Node:
		if m := typed.Map(); m != nil {
			return m
		}
	case *Paths:
		if m := typed.Map(); m != nil {
			return m
		}
	}
	return map[string]any{}
}
