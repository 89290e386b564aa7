package paths

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycle indicates a container that contains itself, directly or
	// transitively.
	ErrCycle = errors.New("paths: cyclic container")
	// ErrSharedContainer indicates the same container reachable under two
	// different key trails.
	ErrSharedContainer = errors.New("paths: container reachable from more than one key")
	// ErrReadOnly indicates a write to, or a second build over, a sealed leaf.
	ErrReadOnly = errors.New("paths: leaf is read-only")
	// ErrUnassignable indicates a plain map that cannot hold computed path
	// strings.
	ErrUnassignable = errors.New("paths: map cannot hold path strings")
	// ErrNotContainer indicates a container operation on a leaf.
	ErrNotContainer = errors.New("paths: node is not a container")
	// ErrNoEvaluator indicates no expression engine could be resolved.
	ErrNoEvaluator = errors.New("paths: evaluator not configured")
)

// BuildError reports where a build stopped.
type BuildError struct {
	Key  string
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "unknown error"
	if e.Err != nil {
		msg = strings.TrimPrefix(e.Err.Error(), "paths: ")
	}
	if e.Path == "" {
		return fmt.Sprintf("paths: build key=%q: %s", e.Key, msg)
	}
	return fmt.Sprintf("paths: build key=%q path=%q: %s", e.Key, e.Path, msg)
}

func (e *BuildError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newBuildError(trail []string, path string, err error) error {
	return &BuildError{
		Key:  strings.Join(trail, "."),
		Path: path,
		Err:  err,
	}
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Scope  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("paths: %s evaluator %s scope=%s: %v", e.Engine, describeExpression(e.Expr), e.Scope, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engineName string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "paths:") {
		return err
	}
	return fmt.Errorf("paths: %s evaluator: %w", engineName, err)
}

func wrapEvaluationError(engineName, expr, scope string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engineName
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Scope == "" {
			evalErr.Scope = scope
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engineName,
		Expr:   expr,
		Scope:  scope,
		Err:    err,
	}
}
