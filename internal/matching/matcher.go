package matching

import (
	"net/http"
	"strings"

	"github.com/mockdeck/mockdeck/pkg/mock"
)

// MatchResult contains the result of matching a request against a rule.
type MatchResult struct {
	Rule            *mock.Rule
	Score           int
	PathCaptures    map[string]string      // Named capture groups from PathPattern regex or {param} segments
	JSONPathMatches map[string]any // Values extracted from JSONPath matching
}

// MatchScore calculates the match score for a request against a matcher.
// Returns 0 if there's no match, higher scores indicate better matches.
func MatchScore(matcher *mock.Matcher, r *http.Request, body []byte) int {
	score, _ := MatchScoreWithCaptures(matcher, r, body)
	return score
}

// MatchScoreWithCaptures calculates the match score and returns any path captures.
// Returns 0 if there's no match, higher scores indicate better matches.
// Captures come from PathPattern named groups or {param} path segments.
func MatchScoreWithCaptures(matcher *mock.Matcher, r *http.Request, body []byte) (int, map[string]string) {
	score, pathCaptures, _ := matchScoreAll(matcher, r, body)
	return score, pathCaptures
}

// matchScoreAll runs the full matching cascade. Every specified criterion
// must hold or the whole match fails with score 0.
func matchScoreAll(matcher *mock.Matcher, r *http.Request, body []byte) (int, map[string]string, map[string]any) {
	if matcher == nil {
		return 0, nil, nil
	}

	// Path and PathPattern are mutually exclusive
	if matcher.Path != "" && matcher.PathPattern != "" {
		return 0, nil, nil
	}

	score := 0
	var pathCaptures map[string]string
	var jsonPathMatches map[string]any

	// Method matching (required if specified)
	if matcher.Method != "" {
		if !MatchMethod(matcher.Method, r.Method) {
			return 0, nil, nil
		}
		score += ScoreMethod
	}

	// Path matching (required if specified)
	if matcher.Path != "" {
		pathScore := MatchPath(matcher.Path, r.URL.Path)
		if pathScore == 0 {
			return 0, nil, nil
		}
		score += pathScore
		if strings.Contains(matcher.Path, "{") || strings.Contains(matcher.Path, "*") {
			pathCaptures = PathParams(matcher.Path, r.URL.Path)
		}
	}

	// PathPattern regex matching (required if specified)
	if matcher.PathPattern != "" {
		pathScore, captures := MatchPathPattern(matcher.PathPattern, r.URL.Path)
		if pathScore == 0 {
			return 0, nil, nil
		}
		score += pathScore
		pathCaptures = captures
	}

	// Header matching (supports wildcards via MatchHeaderPattern)
	for name, value := range matcher.Headers {
		if !MatchHeaderPattern(name, value, r.Header) {
			return 0, nil, nil
		}
		score += ScoreHeader
	}

	// Query param matching
	for name, value := range matcher.QueryParams {
		if !MatchQueryParam(name, value, r.URL.Query()) {
			return 0, nil, nil
		}
		score += ScoreQueryParam
	}

	// Body matching - equals, contains, pattern, and JSONPath combine with AND logic
	if matcher.BodyEquals != "" {
		if string(body) != matcher.BodyEquals {
			return 0, nil, nil
		}
		score += ScoreBodyEquals
	}

	if matcher.BodyContains != "" {
		if !strings.Contains(string(body), matcher.BodyContains) {
			return 0, nil, nil
		}
		score += ScoreBodyContains
	}

	if matcher.BodyPattern != "" {
		bodyPatternScore := MatchBodyPattern(matcher.BodyPattern, body)
		if bodyPatternScore == 0 {
			return 0, nil, nil
		}
		score += bodyPatternScore
	}

	// JSONPath body matching
	if len(matcher.BodyJSONPath) > 0 {
		jpResult := MatchJSONPath(matcher.BodyJSONPath, body)
		if jpResult.Score == 0 {
			return 0, nil, nil
		}
		score += jpResult.Score
		jsonPathMatches = jpResult.Matched
	}

	// When-condition matching (evaluated last, sees path captures)
	if matcher.When != "" {
		env := ConditionEnv(r, body, pathCaptures)
		if !EvalCondition(matcher.When, env) {
			return 0, nil, nil
		}
		score += ScoreCondition
	}

	return score, pathCaptures, jsonPathMatches
}

// BestMatch finds the enabled rule with the highest match score for a request.
// Score ties break on rule priority (higher wins), then on rule order.
// Returns nil if no rule matches.
func BestMatch(rules []*mock.Rule, r *http.Request, body []byte) *MatchResult {
	var best *MatchResult

	for _, rule := range rules {
		if rule == nil || !rule.IsEnabled() {
			continue
		}

		score, captures, jsonPathMatches := matchScoreAll(&rule.Matcher, r, body)
		if score == 0 {
			continue
		}

		if best == nil || score > best.Score ||
			(score == best.Score && rule.Priority > best.Rule.Priority) {
			best = &MatchResult{
				Rule:            rule,
				Score:           score,
				PathCaptures:    captures,
				JSONPathMatches: jsonPathMatches,
			}
		}
	}

	return best
}
