package matching

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// MatchMethod checks if the request method matches.
func MatchMethod(expected, actual string) bool {
	return strings.EqualFold(expected, actual)
}

// MatchHeaderPattern checks if a header matches a pattern.
// Header names are case-insensitive (per HTTP spec).
// Supports simple prefix (pattern*), suffix (*pattern), and contains (*pattern*) forms.
func MatchHeaderPattern(name, pattern string, headers http.Header) bool {
	actualValue := headers.Get(name)
	if actualValue == "" {
		return false
	}

	// Exact match
	if !strings.Contains(pattern, "*") {
		return actualValue == pattern
	}

	// Prefix match (pattern*)
	if strings.HasSuffix(pattern, "*") && !strings.HasPrefix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(actualValue, prefix)
	}

	// Suffix match (*pattern)
	if strings.HasPrefix(pattern, "*") && !strings.HasSuffix(pattern, "*") {
		suffix := strings.TrimPrefix(pattern, "*")
		return strings.HasSuffix(actualValue, suffix)
	}

	// Contains match (*pattern*)
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		middle := strings.Trim(pattern, "*")
		return strings.Contains(actualValue, middle)
	}

	return false
}

// MatchQueryParam checks if a specific query parameter matches.
func MatchQueryParam(name, expectedValue string, params url.Values) bool {
	return params.Get(name) == expectedValue
}

// MatchBodyPattern checks if the request body matches a regex pattern.
// Returns a score > 0 if matched, 0 if not matched.
// Uses Go's regexp package with RE2 syntax.
func MatchBodyPattern(pattern string, body []byte) int {
	if pattern == "" {
		return 0
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		// Invalid regex pattern - gracefully return no match
		return 0
	}

	if re.Match(body) {
		return ScoreBodyPattern
	}

	return 0
}
