//go:build !js_eval

package paths

// NewJSEvaluator is unavailable without the js_eval build tag and returns nil.
func NewJSEvaluator(opts ...EngineOption) Evaluator {
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
