// Package util provides shared helpers for safe file-path validation and
// log-body truncation used across mockdeck packages.
//
//   - SafeFilePath: reject path-traversal attempts
//   - TruncateBody: cap request/response bodies for safe logging
package util
