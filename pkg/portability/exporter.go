// Package portability moves environment sets between installations as
// plain JSON files.
//
// Export serializes the full environment list to a pretty-printed JSON
// array. Import parses such an array back; imported environments get
// fresh ids on save so they never collide with existing entries, while
// names, variables, service configs, and overrides carry over verbatim.
package portability

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mockdeck/mockdeck/pkg/env"
)

// ExportOptions provides configuration for the export process.
type ExportOptions struct {
	// Pretty formats output with indentation (default true)
	Pretty bool
}

// ExportResult contains the result of an export operation.
type ExportResult struct {
	// Data is the exported bytes
	Data []byte

	// Filename is the suggested download filename
	Filename string

	// Count is the number of environments exported
	Count int
}

// Export serializes environments to a portable JSON array. A nil slice
// exports as an empty array, so a fresh install still round-trips.
func Export(envs []*env.Environment, opts *ExportOptions) (*ExportResult, error) {
	if opts == nil {
		opts = &ExportOptions{Pretty: true}
	}
	if envs == nil {
		envs = []*env.Environment{}
	}

	var data []byte
	var err error
	if opts.Pretty {
		data, err = json.MarshalIndent(envs, "", "  ")
	} else {
		data, err = json.Marshal(envs)
	}
	if err != nil {
		return nil, &ExportError{Message: "encoding environments", Cause: err}
	}

	return &ExportResult{
		Data:     data,
		Filename: ExportFilename(time.Now()),
		Count:    len(envs),
	}, nil
}

// ExportFilename renders the suggested download name for an export
// taken at t, e.g. "environments-1766411262000.json".
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("environments-%d.json", t.UnixMilli())
}

// ExportError represents an error during export.
type ExportError struct {
	Message string
	Cause   error
}

func (e *ExportError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}
