// Package matching provides request matching algorithms for mock services.
//
// It implements scoring-based matching for HTTP requests against rule
// definitions, supporting multiple matching criteria including:
//
//   - Path matching: exact paths, wildcard patterns, named parameters, and regex patterns
//   - Method matching: HTTP method verification
//   - Header matching: exact values and wildcard patterns
//   - Query parameter matching: key-value verification
//   - Body matching: exact, contains, regex patterns, and JSONPath expressions
//   - Conditions: expr-lang expressions evaluated against the request
//
// The matching system uses a weighted scoring algorithm where more specific
// matches receive higher scores. When multiple rules could match a request,
// the one with the highest score is selected, with rule priority breaking
// ties. Score constants are defined in scores.go.
package matching
