package matching

import (
	"regexp"
	"strconv"
	"strings"
)

// segments splits a path into its slash-separated parts, ignoring
// leading and trailing slashes.
func segments(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// isParamSegment reports whether a pattern segment is a {name} placeholder.
func isParamSegment(s string) bool {
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}

// MatchPath scores the request path against a path pattern. Zero means
// no match. An exact match outscores a {name} placeholder match, which
// outscores a wildcard match, so more specific rules win ties.
//
// Pattern forms:
//   - literal: "/api/users"
//   - placeholders: "/api/users/{id}"
//   - trailing wildcard: "/api/users/*"
//   - embedded wildcards: "/api/*/users"
func MatchPath(pattern, path string) int {
	if pattern == path {
		return ScorePathExact
	}

	if strings.Contains(pattern, "{") && strings.Contains(pattern, "}") {
		if matchSegments(pattern, path) {
			return ScorePathNamedParams
		}
	}

	if rest, ok := strings.CutSuffix(pattern, "/*"); ok {
		if path == rest || strings.HasPrefix(path, rest+"/") {
			return ScorePathWildcard
		}
	}

	if strings.Contains(pattern, "*") && matchWildcard(pattern, path) {
		return ScorePathWildcard
	}

	return 0
}

// matchSegments matches a placeholder pattern segment by segment.
// A {name} segment accepts any single path segment; everything else
// must match literally, and the segment counts must agree.
func matchSegments(pattern, path string) bool {
	patternParts := segments(pattern)
	pathParts := segments(path)
	if len(patternParts) != len(pathParts) {
		return false
	}

	for i, part := range patternParts {
		if isParamSegment(part) {
			continue
		}
		if part != pathParts[i] {
			return false
		}
	}
	return true
}

// matchWildcard matches a pattern whose * segments stand for any run
// of characters. The literal chunks between wildcards must appear in
// the path in order; the first chunk anchors at the start.
func matchWildcard(pattern, path string) bool {
	chunks := strings.Split(pattern, "*")
	if len(chunks) == 1 {
		return pattern == path
	}

	pos := 0
	for i, chunk := range chunks {
		if chunk == "" {
			continue
		}
		if i == 0 {
			if !strings.HasPrefix(path, chunk) {
				return false
			}
			pos = len(chunk)
			continue
		}
		idx := strings.Index(path[pos:], chunk)
		if idx == -1 {
			return false
		}
		pos += idx + len(chunk)
	}
	return true
}

// MatchPathPattern scores the request path against an RE2 regex.
// Zero means no match; an unparsable pattern also reports no match
// rather than failing the request. Named capture groups come back as
// a map for condition access.
func MatchPathPattern(pattern, path string) (score int, captures map[string]string) {
	if pattern == "" {
		return 0, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, nil
	}

	match := re.FindStringSubmatch(path)
	if match == nil {
		return 0, nil
	}

	captures = make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" || i >= len(match) {
			continue
		}
		captures[name] = match[i]
	}
	return ScorePathPattern, captures
}

// PathParams extracts path variables from a matched pattern.
// {name} segments bind under their name; * segments bind under their
// zero-based wildcard index, and a trailing * captures the whole rest
// of the path:
//
//	PathParams("/users/{id}", "/users/123")          // {"id": "123"}
//	PathParams("/api/*/items/*", "/api/u/items/789") // {"0": "u", "1": "789"}
func PathParams(pattern, path string) map[string]string {
	result := make(map[string]string)
	patternParts := segments(pattern)
	pathParts := segments(path)

	wildcard := 0
	for i, part := range patternParts {
		if i >= len(pathParts) {
			break
		}
		switch {
		case isParamSegment(part):
			result[part[1:len(part)-1]] = pathParts[i]
		case part == "*":
			if i == len(patternParts)-1 {
				result[strconv.Itoa(wildcard)] = strings.Join(pathParts[i:], "/")
			} else {
				result[strconv.Itoa(wildcard)] = pathParts[i]
			}
			wildcard++
		}
	}
	return result
}
