// Package util provides shared utility functions for mockdeck.
package util

import (
	"path/filepath"
	"strings"
)

// MaxLogBodySize is the default maximum body size for logging (10KB).
const MaxLogBodySize = 10 * 1024

// SafeFilePath cleans a file path and reports whether it is safe to
// open. Absolute paths are allowed (rule and config files may point
// anywhere on the author's machine); empty paths and paths that still
// contain ".." after cleaning are rejected.
func SafeFilePath(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	cleaned := filepath.Clean(path)
	if strings.Contains(cleaned, "..") {
		return "", false
	}
	return cleaned, true
}

// TruncateBody truncates a string to maxSize bytes, appending "...(truncated)" if truncated.
// If maxSize <= 0, uses MaxLogBodySize.
func TruncateBody(data string, maxSize int) string {
	if maxSize <= 0 {
		maxSize = MaxLogBodySize
	}
	if len(data) > maxSize {
		return data[:maxSize] + "...(truncated)"
	}
	return data
}
