package paths

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function represents a callable registered against evaluators.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions keyed by case-insensitive name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("paths: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("paths: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("paths: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Has reports whether name is registered.
func (r *FunctionRegistry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.functions[strings.ToLower(name)]
	return ok
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("paths: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("paths: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry configures a wrapper to use a copy of registry.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the wrapper.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *config) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// JoinPath joins segments with a single "/" between them, collapsing the
// slashes already present at each joint. The first segment keeps its
// leading slashes and the last its trailing ones.
func JoinPath(segments ...string) string {
	var b strings.Builder
	for i, segment := range segments {
		if i == 0 {
			b.WriteString(segment)
			continue
		}
		current := strings.TrimRight(b.String(), "/")
		b.Reset()
		b.WriteString(current)
		b.WriteByte('/')
		b.WriteString(strings.TrimLeft(segment, "/"))
	}
	return b.String()
}

// BuiltinFunctions returns a new registry holding the functions every
// wrapper registers by default: join(segments...) stringifies its arguments
// and joins them with JoinPath.
func BuiltinFunctions() *FunctionRegistry {
	return withBuiltins(nil)
}

// withBuiltins returns a registry carrying the built-in join function
// unless registry already defines one.
func withBuiltins(registry *FunctionRegistry) *FunctionRegistry {
	out := registry.Clone()
	if out == nil {
		out = NewFunctionRegistry()
	}
	if !out.Has("join") {
		_ = out.Register("join", joinFunction)
	}
	return out
}

func joinFunction(args ...any) (any, error) {
	segments := make([]string, len(args))
	for i, arg := range args {
		segments[i] = Stringify(arg)
	}
	return JoinPath(segments...), nil
}
