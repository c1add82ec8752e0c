package matching

import (
	"net/http"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// conditionCache holds compiled when-condition programs keyed by expression.
// The condition env always has the same shape, so the expression alone is
// a sufficient cache key.
var (
	conditionMu    sync.RWMutex
	conditionCache = map[string]*vm.Program{}
)

// ConditionEnv builds the evaluation environment a when-condition sees.
// Multi-valued headers and query params collapse to their first value.
func ConditionEnv(r *http.Request, body []byte, params map[string]string) map[string]any {
	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}

	query := map[string]string{}
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	if params == nil {
		params = map[string]string{}
	}

	return map[string]any{
		"method":  r.Method,
		"path":    r.URL.Path,
		"headers": headers,
		"query":   query,
		"params":  params,
		"body":    string(body),
	}
}

// EvalCondition evaluates a when-condition expression against the environment.
// Returns false on compile errors, runtime errors, or non-boolean results.
func EvalCondition(expression string, env map[string]any) bool {
	program, err := compileCondition(expression, env)
	if err != nil {
		return false
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false
	}

	b, ok := result.(bool)
	return ok && b
}

func compileCondition(expression string, env map[string]any) (*vm.Program, error) {
	conditionMu.RLock()
	if program, ok := conditionCache[expression]; ok {
		conditionMu.RUnlock()
		return program, nil
	}
	conditionMu.RUnlock()

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, err
	}

	conditionMu.Lock()
	// Double-check in case another goroutine compiled the same expression.
	if existing, ok := conditionCache[expression]; ok {
		conditionMu.Unlock()
		return existing, nil
	}
	conditionCache[expression] = program
	conditionMu.Unlock()

	return program, nil
}
