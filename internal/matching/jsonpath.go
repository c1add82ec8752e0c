package matching

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// JSONPathResult holds the outcome of evaluating JSONPath conditions.
type JSONPathResult struct {
	// Score accumulates ScoreJSONPathCondition per satisfied condition.
	Score int
	// Matched maps sanitized path keys ("$.user.name" -> "user_name")
	// to the values each expression extracted.
	Matched map[string]any
}

// MatchJSONPath evaluates JSONPath conditions against a JSON body.
// Every condition must hold or the whole result is a non-match; a body
// that is not valid JSON never matches. An expected value of the form
// {"exists": bool} asserts presence or absence instead of equality.
func MatchJSONPath(conditions map[string]any, body []byte) JSONPathResult {
	if len(conditions) == 0 {
		return JSONPathResult{}
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return JSONPathResult{}
	}

	result := JSONPathResult{Matched: make(map[string]any)}
	for path, expected := range conditions {
		matched, value := evalJSONPath(path, expected, data)
		if !matched {
			return JSONPathResult{}
		}
		result.Score += ScoreJSONPathCondition
		if value != nil {
			result.Matched[sanitizeJSONPathKey(path)] = value
		}
	}
	return result
}

// evalJSONPath evaluates one condition, returning whether it holds and
// the value it extracted. An unparsable expression never matches.
func evalJSONPath(path string, expected, data any) (bool, any) {
	x, err := jp.ParseString(path)
	if err != nil {
		return false, nil
	}
	results := x.Get(data)

	if want, ok := existsCheck(expected); ok {
		if want {
			if len(results) == 0 {
				return false, nil
			}
			return true, results[0]
		}
		return len(results) == 0, nil
	}

	// Wildcard paths can yield several values; any equal one satisfies
	// the condition.
	for _, r := range results {
		if valuesEqual(r, expected) {
			return true, r
		}
	}
	return false, nil
}

// existsCheck reports whether expected is an {"exists": bool} assertion
// and, if so, which way it asserts.
func existsCheck(expected any) (want, ok bool) {
	m, isMap := expected.(map[string]any)
	if !isMap || len(m) != 1 {
		return false, false
	}
	v, has := m["exists"]
	if !has {
		return false, false
	}
	b, _ := v.(bool)
	return b, true
}

// valuesEqual compares an extracted value with the expected one.
// Bodies decode through encoding/json (numbers become float64) while
// expectations come from YAML or JSON rule files (integers may stay
// int or int64), so numbers compare as floats across those types.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == expected
	}
	if reflect.DeepEqual(actual, expected) {
		return true
	}
	a, aNum := toFloat64(actual)
	e, eNum := toFloat64(expected)
	return aNum && eNum && a == e
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// sanitizeJSONPathKey flattens a JSONPath expression into an
// identifier-style key: "$.items[0].id" becomes "items_0_id".
func sanitizeJSONPathKey(path string) string {
	path = strings.TrimPrefix(path, "$")
	parts := strings.FieldsFunc(path, func(r rune) bool {
		switch r {
		case '.', '[', ']', '*', '@', '?', '(', ')', ',', ' ':
			return true
		}
		return false
	})
	return strings.Join(parts, "_")
}
